// Package emu provides functional emulation of the reduced ARM instruction set.
package emu

import "github.com/sarchlab/armemu/insts"

// PipelineOffset is how far the visible PC runs ahead of the executing
// instruction: the fetch stage is two instructions ahead of execute.
const PipelineOffset = 8

// InstructionSize is the size of an ARM instruction in bytes.
const InstructionSize = 4

// CPSR flag bit positions.
const (
	FlagN uint32 = 1 << 31
	FlagZ uint32 = 1 << 30
	FlagC uint32 = 1 << 29
	FlagV uint32 = 1 << 28
)

// RegFile represents the ARM register file.
// It contains 13 general-purpose registers (R0-R12),
// the program counter (PC), and the status flags (CPSR).
type RegFile struct {
	// R holds general-purpose registers R0-R12.
	R [insts.NumRegisters]uint32

	// PC is the address of the instruction being executed.
	PC uint32

	// CPSR holds the condition flags.
	CPSR Flags
}

// Flags represents the CPSR condition flags.
type Flags struct {
	// N is the negative flag.
	N bool
	// Z is the zero flag.
	Z bool
	// C is the carry flag.
	C bool
	// V is the overflow flag.
	V bool
}

// Word packs the flags into the top four bits of a 32-bit word.
func (f Flags) Word() uint32 {
	var w uint32
	if f.N {
		w |= FlagN
	}
	if f.Z {
		w |= FlagZ
	}
	if f.C {
		w |= FlagC
	}
	if f.V {
		w |= FlagV
	}
	return w
}

// FlagsFromWord unpacks N, Z, C and V from a CPSR word. Other bits are
// ignored.
func FlagsFromWord(w uint32) Flags {
	return Flags{
		N: w&FlagN != 0,
		Z: w&FlagZ != 0,
		C: w&FlagC != 0,
		V: w&FlagV != 0,
	}
}

// ReadReg reads a register value. Register 15 reads as the visible PC
// (PC + 8). Registers outside the file read as 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == insts.PC {
		return r.VisiblePC()
	}
	if reg >= insts.NumRegisters {
		return 0
	}
	return r.R[reg]
}

// WriteReg writes a value to a general-purpose register. Writes to
// registers outside R0-R12 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg >= insts.NumRegisters {
		return
	}
	r.R[reg] = value
}

// VisiblePC returns the PC as software observes it, two instructions ahead
// of the one executing.
func (r *RegFile) VisiblePC() uint32 {
	return r.PC + PipelineOffset
}
