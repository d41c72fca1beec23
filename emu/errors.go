package emu

import (
	"errors"
	"fmt"
)

var (
	// ErrInstructionLimit is returned when the configured maximum number of
	// instructions has been executed without reaching the halt word.
	ErrInstructionLimit = errors.New("max instructions reached")

	// ErrProgramTooLarge is returned when an image does not fit in memory.
	ErrProgramTooLarge = errors.New("program exceeds memory size")
)

// Access is the kind of memory access that faulted.
type Access uint8

// Memory access kinds.
const (
	AccessFetch Access = iota
	AccessLoad
	AccessStore
)

func (a Access) String() string {
	switch a {
	case AccessFetch:
		return "fetch"
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	default:
		return fmt.Sprintf("access(%d)", uint8(a))
	}
}

// OutOfBoundsError reports a fetch, load or store outside memory.
type OutOfBoundsError struct {
	Addr   uint32
	Access Access
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("out of bounds %v at address 0x%08x", e.Access, e.Addr)
}

// DecodeError reports a word that is not a supported instruction.
type DecodeError struct {
	Addr uint32
	Word uint32
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode 0x%08x at address 0x%08x: %v", e.Word, e.Addr, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
