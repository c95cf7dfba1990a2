package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// The hwio struct tag drives register initialization and bank mapping:
//
//	offset=0xNN   offset of the register within its bank (mandatory for
//	              the field to be part of a bank)
//	bank=N        ordinal bank number (default 0)
//	size=0xNN     size of the backing buffer (Mem, Device)
//	vsize=0xNN    virtual (mirrored) size (Mem, defaults to size)
//	rwmask=0xNN   mask of read-only bits (Reg8)
//	reset=0xNN    value after initialization (Reg8)
//	readonly      register cannot be written by the bus
//	writeonly     register cannot be read by the bus
//	rcb wcb pcb   bind Read/Write/Peek callbacks to methods of the
//	              enclosing struct named Read<FIELD>, Write<FIELD>,
//	              Peek<FIELD> (field name uppercased)
type tagOpts struct {
	offset    uint16
	hasOffset bool
	bank      int
	size      int
	vsize     int
	rwmask    uint8
	reset     uint8
	readonly  bool
	writeonly bool
	rcb       bool
	wcb       bool
	pcb       bool
}

func parseTag(tag string) (tagOpts, error) {
	var opts tagOpts
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, hasval := strings.Cut(part, "=")
		var num uint64
		if hasval {
			var err error
			num, err = strconv.ParseUint(strings.TrimPrefix(val, "0x"), 16, 32)
			if err != nil {
				return opts, fmt.Errorf("hwio tag: invalid value %q for %q", val, key)
			}
		}
		switch key {
		case "offset":
			opts.offset = uint16(num)
			opts.hasOffset = true
		case "bank":
			// bank numbers are small ordinals, parse as decimal
			n, err := strconv.Atoi(val)
			if err != nil {
				return opts, fmt.Errorf("hwio tag: invalid bank %q", val)
			}
			opts.bank = n
		case "size":
			opts.size = int(num)
		case "vsize":
			opts.vsize = int(num)
		case "rwmask":
			opts.rwmask = uint8(num)
		case "reset":
			opts.reset = uint8(num)
		case "readonly":
			opts.readonly = true
		case "writeonly":
			opts.writeonly = true
		case "rcb":
			opts.rcb = true
		case "wcb":
			opts.wcb = true
		case "pcb":
			opts.pcb = true
		default:
			return opts, fmt.Errorf("hwio tag: unknown option %q", key)
		}
	}
	return opts, nil
}

// InitRegs initializes all the hwio-tagged fields of the given struct pointer:
// names, reset values, backing buffers, and method-bound callbacks.
func InitRegs(bank any) error {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("hwio: InitRegs wants a pointer to struct, got %T", bank)
	}
	st := v.Elem()
	stype := st.Type()

	for i := 0; i < st.NumField(); i++ {
		field := stype.Field(i)
		tag, found := field.Tag.Lookup("hwio")
		if !found {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("%s.%s: %v", stype.Name(), field.Name, err)
		}

		method := func(prefix string) reflect.Value {
			return v.MethodByName(prefix + strings.ToUpper(field.Name))
		}
		mustMethod := func(prefix string) (reflect.Value, error) {
			m := method(prefix)
			if !m.IsValid() {
				return m, fmt.Errorf("%s: no method %s%s", stype.Name(), prefix, strings.ToUpper(field.Name))
			}
			return m, nil
		}

		switch reg := st.Field(i).Addr().Interface().(type) {
		case *Reg8:
			reg.Name = field.Name
			reg.Value = opts.reset
			reg.RoMask = opts.rwmask
			if opts.readonly {
				reg.Flags |= ReadOnlyFlag
			}
			if opts.writeonly {
				reg.Flags |= WriteOnlyFlag
			}
			if opts.rcb {
				m, err := mustMethod("Read")
				if err != nil {
					return err
				}
				reg.ReadCb = m.Interface().(func(uint8) uint8)
			}
			if opts.wcb {
				m, err := mustMethod("Write")
				if err != nil {
					return err
				}
				reg.WriteCb = m.Interface().(func(uint8, uint8))
			}
			if opts.pcb {
				m, err := mustMethod("Peek")
				if err != nil {
					return err
				}
				reg.PeekCb = m.Interface().(func(uint8) uint8)
			}

		case *Mem:
			reg.Name = field.Name
			if reg.Data == nil && opts.size > 0 {
				reg.Data = make([]byte, opts.size)
			}
			reg.VSize = opts.vsize
			if reg.VSize == 0 {
				reg.VSize = len(reg.Data)
			}
			if opts.readonly {
				reg.Flags |= MemFlag8ReadOnly
			}
			if opts.wcb {
				m, err := mustMethod("Write")
				if err != nil {
					return err
				}
				reg.WriteCb = m.Interface().(func(uint16, uint8))
			}

		case *Device:
			reg.Name = field.Name
			if opts.size > 0 {
				reg.Size = opts.size
			}
			if opts.readonly {
				reg.Flags |= ReadOnlyFlag
			}
			if opts.writeonly {
				reg.Flags |= WriteOnlyFlag
			}
			if opts.rcb {
				m, err := mustMethod("Read")
				if err != nil {
					return err
				}
				reg.ReadCb = m.Interface().(func(uint16) uint8)
			}
			if opts.wcb {
				m, err := mustMethod("Write")
				if err != nil {
					return err
				}
				reg.WriteCb = m.Interface().(func(uint16, uint8))
			}
			if opts.pcb {
				m, err := mustMethod("Peek")
				if err != nil {
					return err
				}
				reg.PeekCb = m.Interface().(func(uint16) uint8)
			}

		default:
			return fmt.Errorf("%s.%s: hwio tag on unsupported type %s", stype.Name(), field.Name, field.Type)
		}
	}
	return nil
}

func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

type boundReg struct {
	offset uint16
	regPtr any
}

// bankGetRegs collects the hwio-tagged fields of the given bank number, with
// their offsets, ready to be mapped into a Table.
func bankGetRegs(bank any, bankNum int) ([]boundReg, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: MapBank wants a pointer to struct, got %T", bank)
	}
	st := v.Elem()
	stype := st.Type()

	var regs []boundReg
	for i := 0; i < st.NumField(); i++ {
		field := stype.Field(i)
		tag, found := field.Tag.Lookup("hwio")
		if !found {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %v", stype.Name(), field.Name, err)
		}
		if !opts.hasOffset || opts.bank != bankNum {
			continue
		}
		regs = append(regs, boundReg{
			offset: opts.offset,
			regPtr: st.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}
