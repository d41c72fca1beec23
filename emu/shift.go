package emu

import (
	"math/bits"

	"github.com/sarchlab/armemu/insts"
)

// ImmediateValue returns the rotated constant of an immediate operand and
// the shifter carry-out. An unrotated immediate leaves the carry unchanged.
func ImmediateValue(imm insts.Immediate, carryIn bool) (uint32, bool) {
	value := imm.Uint32()
	if imm.Rotate == 0 {
		return value, carryIn
	}
	return value, value>>31 == 1
}

// Shift applies a barrel shifter operation and returns the result and the
// carry-out (the last bit shifted out).
//
// A register-specified amount of 0 is the identity with carry unchanged, as
// is LSL #0. Immediate LSR #0 and ASR #0 encode a shift by 32 and ROR #0
// encodes RRX.
func Shift(value uint32, shift insts.ShiftType, amount uint32, byRegister, carryIn bool) (uint32, bool) {
	if amount == 0 {
		if byRegister {
			return value, carryIn
		}
		switch shift {
		case insts.ShiftLSR, insts.ShiftASR:
			amount = 32
		case insts.ShiftROR:
			return rrx(value, carryIn)
		default:
			return value, carryIn
		}
	}

	switch shift {
	case insts.ShiftLSL:
		return lsl(value, amount)
	case insts.ShiftLSR:
		return lsr(value, amount)
	case insts.ShiftASR:
		return asr(value, amount)
	case insts.ShiftROR:
		return ror(value, amount)
	default:
		return value, carryIn
	}
}

func lsl(value, amount uint32) (uint32, bool) {
	switch {
	case amount < 32:
		return value << amount, (value>>(32-amount))&1 == 1
	case amount == 32:
		return 0, value&1 == 1
	default:
		return 0, false
	}
}

func lsr(value, amount uint32) (uint32, bool) {
	switch {
	case amount < 32:
		return value >> amount, (value>>(amount-1))&1 == 1
	case amount == 32:
		return 0, value>>31 == 1
	default:
		return 0, false
	}
}

func asr(value, amount uint32) (uint32, bool) {
	if amount >= 32 {
		if value>>31 == 1 {
			return 0xFFFFFFFF, true
		}
		return 0, false
	}
	return uint32(int32(value) >> amount), (value>>(amount-1))&1 == 1
}

func ror(value, amount uint32) (uint32, bool) {
	n := amount % 32
	if n == 0 {
		return value, value>>31 == 1
	}
	result := bits.RotateLeft32(value, -int(n))
	return result, result>>31 == 1
}

func rrx(value uint32, carryIn bool) (uint32, bool) {
	result := value >> 1
	if carryIn {
		result |= 1 << 31
	}
	return result, value&1 == 1
}
