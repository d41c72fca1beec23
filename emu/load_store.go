package emu

// TransferAddress computes the address a single data transfer accesses and
// the adjusted base. Pre-indexed transfers access base±offset; post-indexed
// transfers access base and write the adjusted base back to Rn.
func TransferAddress(base, offset uint32, preIndexed, up bool) (addr, adjusted uint32) {
	if up {
		adjusted = base + offset
	} else {
		adjusted = base - offset
	}

	if preIndexed {
		return adjusted, adjusted
	}
	return base, adjusted
}
