package insts

import (
	"errors"
	"fmt"
)

// Decode errors. Decoder errors wrap one of these.
var (
	ErrUnknownCondition    = errors.New("unknown condition code")
	ErrUnknownClass        = errors.New("unrecognized instruction class")
	ErrUnknownOpcode       = errors.New("unsupported data processing opcode")
	ErrUnsupportedRegister = errors.New("unsupported register")
	ErrUnsupportedForm     = errors.New("unsupported instruction form")
)

// Decoder decodes ARM machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new ARM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit ARM instruction word. It has no side effects.
//
// TST, TEQ and CMP always set flags, so they are only accepted with the S
// bit set. With S clear the word lies in the status register transfer
// space and is rejected with ErrUnsupportedForm.
func (d *Decoder) Decode(word uint32) (Instruction, error) {
	cond := Cond(word >> 28) // bits [31:28]
	if !cond.Valid() {
		return nil, fmt.Errorf("%w: %04b", ErrUnknownCondition, uint8(cond))
	}

	// Multiply shares bits [27:26] == 00 with data processing, so it is
	// matched first.
	switch {
	case d.isMultiply(word):
		return d.decodeMultiply(word, cond)
	case d.isDataProcessing(word):
		return d.decodeDataProcessing(word, cond)
	case d.isSingleDataTransfer(word):
		return d.decodeSingleDataTransfer(word, cond)
	case d.isBranch(word):
		return d.decodeBranch(word, cond)
	default:
		return nil, fmt.Errorf("%w: 0x%08X", ErrUnknownClass, word)
	}
}

// isMultiply checks for MUL/MLA.
// bits [27:22] == 0b000000, bits [7:4] == 0b1001
func (d *Decoder) isMultiply(word uint32) bool {
	return (word>>22)&0x3F == 0 && (word>>4)&0xF == 0b1001
}

// isDataProcessing checks bits [27:26] == 0b00.
func (d *Decoder) isDataProcessing(word uint32) bool {
	return (word>>26)&0x3 == 0b00
}

// isSingleDataTransfer checks bits [27:26] == 0b01.
func (d *Decoder) isSingleDataTransfer(word uint32) bool {
	return (word>>26)&0x3 == 0b01
}

// isBranch checks bits [27:25] == 0b101.
func (d *Decoder) isBranch(word uint32) bool {
	return (word>>25)&0x7 == 0b101
}

// decodeDataProcessing decodes ALU instructions.
// Format: cond | 00 | I | opcode | S | Rn | Rd | operand2
func (d *Decoder) decodeDataProcessing(word uint32, cond Cond) (Instruction, error) {
	imm := (word >> 25) & 0x1    // bit 25
	opcode := (word >> 21) & 0xF // bits [24:21]
	s := (word >> 20) & 0x1      // bit 20
	rn := (word >> 16) & 0xF     // bits [19:16]
	rd := (word >> 12) & 0xF     // bits [15:12]

	inst := DataProcessing{
		Cond:     cond,
		Opcode:   Opcode(opcode),
		SetFlags: s == 1,
		Rn:       uint8(rn),
		Rd:       uint8(rd),
	}

	if !inst.Opcode.Valid() {
		return nil, fmt.Errorf("%w: %04b", ErrUnknownOpcode, opcode)
	}

	// TST/TEQ/CMP without S are the status register transfer encodings.
	if inst.Opcode.IsTest() && !inst.SetFlags {
		return nil, fmt.Errorf("%w: %v without set-flags bit", ErrUnsupportedForm, inst.Opcode)
	}

	if inst.Opcode.UsesRn() {
		if err := checkReadable(inst.Rn); err != nil {
			return nil, err
		}
	}
	if !inst.Opcode.IsTest() {
		if err := checkGeneral(inst.Rd); err != nil {
			return nil, err
		}
	}

	if imm == 1 {
		inst.Operand2 = Immediate{
			Value:  uint8(word & 0xFF),        // bits [7:0]
			Rotate: uint8((word >> 8) & 0xF), // bits [11:8]
		}
		return inst, nil
	}

	op2, err := d.decodeShiftedRegister(word)
	if err != nil {
		return nil, err
	}
	inst.Operand2 = op2

	return inst, nil
}

// decodeShiftedRegister decodes the register form of operand2 / offset.
// Immediate amount: shift(5) | type(2) | 0 | Rm
// Register amount:  Rs(4) | 0 | type(2) | 1 | Rm
func (d *Decoder) decodeShiftedRegister(word uint32) (ShiftedRegister, error) {
	op := ShiftedRegister{
		Rm:    uint8(word & 0xF),            // bits [3:0]
		Shift: ShiftType((word >> 5) & 0x3), // bits [6:5]
	}

	if err := checkReadable(op.Rm); err != nil {
		return ShiftedRegister{}, err
	}

	if (word>>4)&0x1 == 0 {
		op.Amount = uint8((word >> 7) & 0x1F) // bits [11:7]
		return op, nil
	}

	// bit 7 set with bit 4 set is the multiply/extension space.
	if (word>>7)&0x1 == 1 {
		return ShiftedRegister{}, fmt.Errorf("%w: extension encoding 0x%08X", ErrUnsupportedForm, word)
	}

	op.ByRegister = true
	op.Rs = uint8((word >> 8) & 0xF) // bits [11:8]
	if op.Rm == PC {
		return ShiftedRegister{}, fmt.Errorf("%w: pc shifted by register", ErrUnsupportedRegister)
	}
	if err := checkGeneral(op.Rs); err != nil {
		return ShiftedRegister{}, err
	}

	return op, nil
}

// decodeMultiply decodes MUL and MLA.
// Format: cond | 000000 | A | S | Rd | Rn | Rs | 1001 | Rm
func (d *Decoder) decodeMultiply(word uint32, cond Cond) (Instruction, error) {
	inst := Multiply{
		Cond:       cond,
		Accumulate: (word>>21)&0x1 == 1,
		SetFlags:   (word>>20)&0x1 == 1,
		Rd:         uint8((word >> 16) & 0xF),
		Rn:         uint8((word >> 12) & 0xF),
		Rs:         uint8((word >> 8) & 0xF),
		Rm:         uint8(word & 0xF),
	}

	regs := []uint8{inst.Rd, inst.Rs, inst.Rm}
	if inst.Accumulate {
		regs = append(regs, inst.Rn)
	}
	for _, r := range regs {
		if err := checkGeneral(r); err != nil {
			return nil, err
		}
	}

	return inst, nil
}

// decodeSingleDataTransfer decodes LDR and STR.
// Format: cond | 01 | I | P | U | B | W | L | Rn | Rd | offset
func (d *Decoder) decodeSingleDataTransfer(word uint32, cond Cond) (Instruction, error) {
	imm := (word >> 25) & 0x1 // bit 25: 1 = register offset
	b := (word >> 22) & 0x1   // bit 22: byte transfer
	w := (word >> 21) & 0x1   // bit 21: writeback

	inst := SingleDataTransfer{
		Cond:       cond,
		PreIndexed: (word>>24)&0x1 == 1,
		Up:         (word>>23)&0x1 == 1,
		Load:       (word>>20)&0x1 == 1,
		Rn:         uint8((word >> 16) & 0xF),
		Rd:         uint8((word >> 12) & 0xF),
	}

	if b == 1 {
		return nil, fmt.Errorf("%w: byte transfer", ErrUnsupportedForm)
	}
	if w == 1 {
		return nil, fmt.Errorf("%w: transfer with writeback bit", ErrUnsupportedForm)
	}

	if err := checkReadable(inst.Rn); err != nil {
		return nil, err
	}
	// Post-indexing writes the base register back.
	if !inst.PreIndexed {
		if err := checkGeneral(inst.Rn); err != nil {
			return nil, err
		}
	}
	if err := checkGeneral(inst.Rd); err != nil {
		return nil, err
	}

	if imm == 0 {
		inst.Offset = Offset12{Value: uint16(word & 0xFFF)}
		return inst, nil
	}

	if (word>>4)&0x1 == 1 {
		return nil, fmt.Errorf("%w: register-specified shift in transfer", ErrUnsupportedForm)
	}
	offset, err := d.decodeShiftedRegister(word)
	if err != nil {
		return nil, err
	}
	inst.Offset = offset

	return inst, nil
}

// decodeBranch decodes B.
// Format: cond | 101 | L | offset24
func (d *Decoder) decodeBranch(word uint32, cond Cond) (Instruction, error) {
	if (word>>24)&0x1 == 1 {
		return nil, fmt.Errorf("%w: branch with link", ErrUnsupportedForm)
	}

	// Sign-extend the 24-bit word offset.
	offset := int32(word<<8) >> 8

	return Branch{Cond: cond, Offset: offset}, nil
}

// checkReadable accepts R0-R12 and the PC.
func checkReadable(reg uint8) error {
	if reg < NumRegisters || reg == PC {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedRegister, RegisterName(reg))
}

// checkGeneral accepts R0-R12.
func checkGeneral(reg uint8) error {
	if reg < NumRegisters {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedRegister, RegisterName(reg))
}
