package emu

import "github.com/sarchlab/armemu/insts"

// ALUResult is the outcome of a data processing operation.
type ALUResult struct {
	// Value is the computed result.
	Value uint32
	// Flags is the CPSR after the operation.
	Flags Flags
	// WriteBack is false for TST, TEQ and CMP, which only set flags.
	WriteBack bool
}

// Compute performs a data processing operation on rn and the shifted
// operand op2. Flags are only changed when setFlags is true; logical
// operations take C from shifterCarry and leave V alone, arithmetic
// operations take C and V from the adder.
func Compute(op insts.Opcode, rn, op2 uint32, shifterCarry, setFlags bool, flags Flags) ALUResult {
	var (
		result          uint32
		carry, overflow bool
	)

	switch op {
	case insts.OpAND, insts.OpTST:
		result = rn & op2
	case insts.OpEOR, insts.OpTEQ:
		result = rn ^ op2
	case insts.OpORR:
		result = rn | op2
	case insts.OpMOV:
		result = op2
	case insts.OpMVN:
		result = ^op2
	case insts.OpSUB, insts.OpCMP:
		result = rn - op2
		carry, overflow = subFlags(rn, op2, result)
	case insts.OpRSB:
		result = op2 - rn
		carry, overflow = subFlags(op2, rn, result)
	case insts.OpADD:
		result = rn + op2
		carry, overflow = addFlags(rn, op2, result)
	}

	if setFlags {
		flags.N = result>>31 == 1
		flags.Z = result == 0
		if op.IsLogical() {
			flags.C = shifterCarry
		} else {
			flags.C = carry
			flags.V = overflow
		}
	}

	return ALUResult{
		Value:     result,
		Flags:     flags,
		WriteBack: !op.IsTest(),
	}
}

// addFlags returns C and V for op1 + op2.
func addFlags(op1, op2, result uint32) (carry, overflow bool) {
	// C: unsigned overflow (carry out)
	carry = result < op1

	// V: adding two positives gives negative, or two negatives gives positive
	op1Sign := op1 >> 31
	op2Sign := op2 >> 31
	resultSign := result >> 31
	overflow = (op1Sign == op2Sign) && (op1Sign != resultSign)
	return carry, overflow
}

// subFlags returns C and V for op1 - op2.
func subFlags(op1, op2, result uint32) (carry, overflow bool) {
	// C: set if NO borrow occurred (op1 >= op2)
	carry = op1 >= op2

	op1Sign := op1 >> 31
	op2Sign := op2 >> 31
	resultSign := result >> 31
	overflow = (op1Sign != op2Sign) && (op2Sign == resultSign)
	return carry, overflow
}
