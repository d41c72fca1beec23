package emu

import "github.com/sarchlab/armemu/insts"

// CheckCondition evaluates an ARM condition code against the CPSR flags.
// Codes the decoder does not accept evaluate to false.
func CheckCondition(cond insts.Cond, flags Flags) bool {
	switch cond {
	case insts.CondEQ:
		return flags.Z
	case insts.CondNE:
		return !flags.Z
	case insts.CondGE:
		return flags.N == flags.V
	case insts.CondLT:
		return flags.N != flags.V
	case insts.CondGT:
		return !flags.Z && (flags.N == flags.V)
	case insts.CondLE:
		return flags.Z || (flags.N != flags.V)
	case insts.CondAL:
		return true
	default:
		return false
	}
}
