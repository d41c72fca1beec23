package emu

// Multiply returns rm * rs, plus rn when accumulating, truncated to 32
// bits.
func Multiply(rm, rs, rn uint32, accumulate bool) uint32 {
	result := rm * rs
	if accumulate {
		result += rn
	}
	return result
}

// multiplyFlags updates N and Z for a multiply result. C and V are kept.
func multiplyFlags(result uint32, flags Flags) Flags {
	flags.N = result>>31 == 1
	flags.Z = result == 0
	return flags
}
