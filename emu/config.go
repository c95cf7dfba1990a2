package emu

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"sufami/emu/log"
)

type Config struct {
	Video   VideoConfig   `toml:"video"`
	Audio   AudioConfig   `toml:"audio"`
	General GeneralConfig `toml:"general"`
}

type VideoConfig struct {
	Scale        int  `toml:"scale"`
	DisableVSync bool `toml:"disable_vsync"`
}

type AudioConfig struct {
	DisableAudio bool `toml:"disable_audio"`
	SampleRate   int  `toml:"sample_rate"`
}

type GeneralConfig struct {
	// Directory for .srm and save-state files. Defaults next to the ROM.
	SaveDir string `toml:"save_dir"`
}

func (cfg *Config) check() {
	if cfg.Video.Scale <= 0 {
		cfg.Video.Scale = 3
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 48000
	}
}

var ConfigDir string = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("sufami")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})()

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the sufami config
// directory, or provides a default one.
func LoadConfigOrDefault() Config {
	var cfg Config
	_, err := toml.DecodeFile(filepath.Join(ConfigDir, cfgFilename), &cfg)
	if err != nil {
		cfg = Config{}
	}
	cfg.check()
	return cfg
}

// SaveConfig into the sufami config directory.
func SaveConfig(cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ConfigDir, cfgFilename), buf, 0644)
}
