package insts

import (
	"fmt"
	"math/bits"
)

// Cond represents an ARM condition code.
type Cond uint8

// Supported ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always (unconditional)
)

var condNames = map[Cond]string{
	CondEQ: "eq",
	CondNE: "ne",
	CondGE: "ge",
	CondLT: "lt",
	CondGT: "gt",
	CondLE: "le",
	CondAL: "al",
}

// Valid reports whether the condition code is one the emulator supports.
func (c Cond) Valid() bool {
	_, ok := condNames[c]
	return ok
}

func (c Cond) String() string {
	if name, ok := condNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cond(%04b)", uint8(c))
}

// suffix is the mnemonic suffix; AL is implied and printed as nothing.
func (c Cond) suffix() string {
	if c == CondAL {
		return ""
	}
	return c.String()
}

// Opcode represents a data processing opcode.
type Opcode uint8

// Data processing opcodes.
const (
	OpAND Opcode = 0b0000
	OpEOR Opcode = 0b0001
	OpSUB Opcode = 0b0010
	OpRSB Opcode = 0b0011
	OpADD Opcode = 0b0100
	OpTST Opcode = 0b1000
	OpTEQ Opcode = 0b1001
	OpCMP Opcode = 0b1010
	OpORR Opcode = 0b1100
	OpMOV Opcode = 0b1101
	OpMVN Opcode = 0b1111
)

var opcodeNames = map[Opcode]string{
	OpAND: "and",
	OpEOR: "eor",
	OpSUB: "sub",
	OpRSB: "rsb",
	OpADD: "add",
	OpTST: "tst",
	OpTEQ: "teq",
	OpCMP: "cmp",
	OpORR: "orr",
	OpMOV: "mov",
	OpMVN: "mvn",
}

// Valid reports whether the opcode is one the emulator supports.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%04b)", uint8(op))
}

// IsLogical reports whether the opcode takes its carry flag from the
// barrel shifter rather than from the adder.
func (op Opcode) IsLogical() bool {
	switch op {
	case OpAND, OpEOR, OpORR, OpMOV, OpMVN, OpTST, OpTEQ:
		return true
	default:
		return false
	}
}

// IsTest reports whether the opcode only updates flags (TST, TEQ, CMP).
func (op Opcode) IsTest() bool {
	return op == OpTST || op == OpTEQ || op == OpCMP
}

// UsesRn reports whether the opcode reads its first operand register.
func (op Opcode) UsesRn() bool {
	return op != OpMOV && op != OpMVN
}

// ShiftType represents a barrel shifter operation.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right
)

var shiftNames = [...]string{"lsl", "lsr", "asr", "ror"}

func (s ShiftType) String() string {
	return shiftNames[s&3]
}

// PC is the register number of the program counter.
const PC uint8 = 15

// NumRegisters is the number of general-purpose registers (R0-R12).
const NumRegisters = 13

// RegisterName returns the assembler name of a register.
func RegisterName(reg uint8) string {
	if reg == PC {
		return "pc"
	}
	return fmt.Sprintf("r%d", reg)
}

// Operand is the second operand of a data processing instruction or the
// offset of a transfer: an Immediate, an Offset12 or a ShiftedRegister.
type Operand interface {
	fmt.Stringer
	isOperand()
}

// Immediate is an 8-bit value rotated right by twice Rotate.
type Immediate struct {
	Value  uint8
	Rotate uint8 // 4-bit rotate field
}

// Uint32 returns the rotated 32-bit constant.
func (i Immediate) Uint32() uint32 {
	return bits.RotateLeft32(uint32(i.Value), -2*int(i.Rotate&0xF))
}

func (i Immediate) String() string {
	return fmt.Sprintf("#%d", i.Uint32())
}

func (Immediate) isOperand() {}

// Offset12 is the unsigned 12-bit immediate offset of a transfer.
type Offset12 struct {
	Value uint16
}

func (o Offset12) String() string {
	return fmt.Sprintf("#%d", o.Value)
}

func (Offset12) isOperand() {}

// ShiftedRegister is a register passed through the barrel shifter. The
// shift amount is either the 5-bit Amount or, when ByRegister is set, the
// low byte of Rs.
type ShiftedRegister struct {
	Rm         uint8
	Shift      ShiftType
	Amount     uint8
	ByRegister bool
	Rs         uint8
}

func (r ShiftedRegister) String() string {
	switch {
	case r.ByRegister:
		return fmt.Sprintf("%s, %s %s", RegisterName(r.Rm), r.Shift, RegisterName(r.Rs))
	case r.Amount == 0 && r.Shift == ShiftLSL:
		return RegisterName(r.Rm)
	case r.Amount == 0 && r.Shift == ShiftROR:
		return fmt.Sprintf("%s, rrx", RegisterName(r.Rm))
	case r.Amount == 0:
		return fmt.Sprintf("%s, %s #32", RegisterName(r.Rm), r.Shift)
	default:
		return fmt.Sprintf("%s, %s #%d", RegisterName(r.Rm), r.Shift, r.Amount)
	}
}

func (ShiftedRegister) isOperand() {}

// Instruction is a decoded ARM instruction: DataProcessing, Multiply,
// SingleDataTransfer or Branch.
type Instruction interface {
	fmt.Stringer
	Condition() Cond
	isInstruction()
}

// DataProcessing is an ALU instruction.
type DataProcessing struct {
	Cond     Cond
	Opcode   Opcode
	SetFlags bool
	Rn       uint8
	Rd       uint8
	Operand2 Operand
}

// Condition returns the condition code.
func (i DataProcessing) Condition() Cond { return i.Cond }

func (i DataProcessing) String() string {
	s := ""
	if i.SetFlags && !i.Opcode.IsTest() {
		s = "s"
	}
	mnemonic := i.Opcode.String() + i.Cond.suffix() + s

	switch {
	case i.Opcode.IsTest():
		return fmt.Sprintf("%s %s, %v", mnemonic, RegisterName(i.Rn), i.Operand2)
	case !i.Opcode.UsesRn():
		return fmt.Sprintf("%s %s, %v", mnemonic, RegisterName(i.Rd), i.Operand2)
	default:
		return fmt.Sprintf("%s %s, %s, %v", mnemonic,
			RegisterName(i.Rd), RegisterName(i.Rn), i.Operand2)
	}
}

func (DataProcessing) isInstruction() {}

// Multiply is a MUL or MLA instruction.
type Multiply struct {
	Cond       Cond
	Accumulate bool
	SetFlags   bool
	Rd         uint8
	Rn         uint8
	Rs         uint8
	Rm         uint8
}

// Condition returns the condition code.
func (i Multiply) Condition() Cond { return i.Cond }

func (i Multiply) String() string {
	s := ""
	if i.SetFlags {
		s = "s"
	}
	if i.Accumulate {
		return fmt.Sprintf("mla%s%s %s, %s, %s, %s", i.Cond.suffix(), s,
			RegisterName(i.Rd), RegisterName(i.Rm), RegisterName(i.Rs), RegisterName(i.Rn))
	}
	return fmt.Sprintf("mul%s%s %s, %s, %s", i.Cond.suffix(), s,
		RegisterName(i.Rd), RegisterName(i.Rm), RegisterName(i.Rs))
}

func (Multiply) isInstruction() {}

// SingleDataTransfer is an LDR or STR instruction.
type SingleDataTransfer struct {
	Cond       Cond
	Load       bool
	PreIndexed bool
	Up         bool
	Rn         uint8
	Rd         uint8
	Offset     Operand
}

// Condition returns the condition code.
func (i SingleDataTransfer) Condition() Cond { return i.Cond }

func (i SingleDataTransfer) String() string {
	mnemonic := "str"
	if i.Load {
		mnemonic = "ldr"
	}
	mnemonic += i.Cond.suffix()

	offset := i.offsetString()
	base := RegisterName(i.Rn)
	switch {
	case offset == "":
		return fmt.Sprintf("%s %s, [%s]", mnemonic, RegisterName(i.Rd), base)
	case i.PreIndexed:
		return fmt.Sprintf("%s %s, [%s, %s]", mnemonic, RegisterName(i.Rd), base, offset)
	default:
		return fmt.Sprintf("%s %s, [%s], %s", mnemonic, RegisterName(i.Rd), base, offset)
	}
}

func (i SingleDataTransfer) offsetString() string {
	sign := ""
	if !i.Up {
		sign = "-"
	}
	switch off := i.Offset.(type) {
	case Offset12:
		if off.Value == 0 && i.Up {
			return ""
		}
		return fmt.Sprintf("#%s%d", sign, off.Value)
	case nil:
		return ""
	default:
		return sign + off.String()
	}
}

func (SingleDataTransfer) isInstruction() {}

// Branch is a B instruction. Offset is the sign-extended 24-bit word offset.
type Branch struct {
	Cond   Cond
	Offset int32
}

// Condition returns the condition code.
func (i Branch) Condition() Cond { return i.Cond }

// String renders the target relative to the branch instruction itself.
func (i Branch) String() string {
	return fmt.Sprintf("b%s .%+d", i.Cond.suffix(), 8+4*int64(i.Offset))
}

func (Branch) isInstruction() {}
