package insts

import (
	"errors"
	"fmt"
)

// ErrUnencodable is returned by Encode for field values that do not fit the
// instruction format.
var ErrUnencodable = errors.New("instruction cannot be encoded")

// Encode produces the machine word for a decoded instruction. For every
// instruction accepted by Encode, Decode(Encode(inst)) returns inst.
func Encode(inst Instruction) (uint32, error) {
	var (
		word uint32
		err  error
	)

	switch inst := inst.(type) {
	case DataProcessing:
		word, err = encodeDataProcessing(inst)
	case Multiply:
		word, err = encodeMultiply(inst)
	case SingleDataTransfer:
		word, err = encodeSingleDataTransfer(inst)
	case Branch:
		word, err = encodeBranch(inst)
	default:
		return 0, fmt.Errorf("%w: unknown instruction type %T", ErrUnencodable, inst)
	}
	if err != nil {
		return 0, err
	}

	// Reject combinations the decoder would not accept, such as
	// unsupported registers or CMP without the set-flags bit.
	if _, err := NewDecoder().Decode(word); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnencodable, err)
	}

	return word, nil
}

// MustEncode is like Encode but panics on error. It is intended for
// building fixed programs in tests and tools.
func MustEncode(inst Instruction) uint32 {
	word, err := Encode(inst)
	if err != nil {
		panic(err)
	}
	return word
}

func encodeDataProcessing(inst DataProcessing) (uint32, error) {
	if err := checkFields(inst.Cond, inst.Rn, inst.Rd); err != nil {
		return 0, err
	}
	if inst.Opcode > 0xF {
		return 0, fmt.Errorf("%w: opcode %d", ErrUnencodable, inst.Opcode)
	}

	word := uint32(inst.Cond)<<28 |
		uint32(inst.Opcode)<<21 |
		boolBit(inst.SetFlags)<<20 |
		uint32(inst.Rn)<<16 |
		uint32(inst.Rd)<<12

	switch op := inst.Operand2.(type) {
	case Immediate:
		if op.Rotate > 0xF {
			return 0, fmt.Errorf("%w: rotate %d", ErrUnencodable, op.Rotate)
		}
		word |= 1<<25 | uint32(op.Rotate)<<8 | uint32(op.Value)
	case ShiftedRegister:
		field, err := encodeShiftedRegister(op)
		if err != nil {
			return 0, err
		}
		word |= field
	default:
		return 0, fmt.Errorf("%w: operand2 %T", ErrUnencodable, inst.Operand2)
	}

	return word, nil
}

func encodeShiftedRegister(op ShiftedRegister) (uint32, error) {
	if op.Rm > 0xF || op.Rs > 0xF || op.Shift > ShiftROR {
		return 0, fmt.Errorf("%w: shifted register %+v", ErrUnencodable, op)
	}

	field := uint32(op.Rm) | uint32(op.Shift)<<5
	if op.ByRegister {
		if op.Amount != 0 {
			return 0, fmt.Errorf("%w: immediate amount with register shift", ErrUnencodable)
		}
		return field | 1<<4 | uint32(op.Rs)<<8, nil
	}

	if op.Rs != 0 {
		return 0, fmt.Errorf("%w: shift register with immediate amount", ErrUnencodable)
	}
	if op.Amount > 0x1F {
		return 0, fmt.Errorf("%w: shift amount %d", ErrUnencodable, op.Amount)
	}
	return field | uint32(op.Amount)<<7, nil
}

func encodeMultiply(inst Multiply) (uint32, error) {
	if err := checkFields(inst.Cond, inst.Rd, inst.Rn, inst.Rs, inst.Rm); err != nil {
		return 0, err
	}

	return uint32(inst.Cond)<<28 |
		boolBit(inst.Accumulate)<<21 |
		boolBit(inst.SetFlags)<<20 |
		uint32(inst.Rd)<<16 |
		uint32(inst.Rn)<<12 |
		uint32(inst.Rs)<<8 |
		0b1001<<4 |
		uint32(inst.Rm), nil
}

func encodeSingleDataTransfer(inst SingleDataTransfer) (uint32, error) {
	if err := checkFields(inst.Cond, inst.Rn, inst.Rd); err != nil {
		return 0, err
	}

	word := uint32(inst.Cond)<<28 |
		0b01<<26 |
		boolBit(inst.PreIndexed)<<24 |
		boolBit(inst.Up)<<23 |
		boolBit(inst.Load)<<20 |
		uint32(inst.Rn)<<16 |
		uint32(inst.Rd)<<12

	switch off := inst.Offset.(type) {
	case Offset12:
		if off.Value > 0xFFF {
			return 0, fmt.Errorf("%w: offset %d", ErrUnencodable, off.Value)
		}
		word |= uint32(off.Value)
	case ShiftedRegister:
		field, err := encodeShiftedRegister(off)
		if err != nil {
			return 0, err
		}
		word |= 1<<25 | field
	default:
		return 0, fmt.Errorf("%w: transfer offset %T", ErrUnencodable, inst.Offset)
	}

	return word, nil
}

func encodeBranch(inst Branch) (uint32, error) {
	if err := checkFields(inst.Cond); err != nil {
		return 0, err
	}
	if inst.Offset < -(1<<23) || inst.Offset >= 1<<23 {
		return 0, fmt.Errorf("%w: branch offset %d", ErrUnencodable, inst.Offset)
	}

	return uint32(inst.Cond)<<28 | 0b1010<<24 | uint32(inst.Offset)&0xFFFFFF, nil
}

func checkFields(cond Cond, regs ...uint8) error {
	if cond > 0xF {
		return fmt.Errorf("%w: condition %d", ErrUnencodable, cond)
	}
	for _, r := range regs {
		if r > 0xF {
			return fmt.Errorf("%w: register %d", ErrUnencodable, r)
		}
	}
	return nil
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
