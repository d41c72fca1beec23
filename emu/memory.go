package emu

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// DefaultMemorySize is the default memory capacity in bytes.
const DefaultMemorySize = 65536

// PageSize is the granularity at which written regions are tracked. It
// matches the unit size of the backing akita storage.
const PageSize = 4096

// Memory is a flat, fixed-capacity, byte-addressable store with
// little-endian word access.
type Memory struct {
	storage *mem.Storage
	size    uint32
	written map[uint32]struct{} // page numbers ever stored to
}

// NewMemory creates a memory of DefaultMemorySize bytes.
func NewMemory() *Memory {
	return NewMemoryWithSize(DefaultMemorySize)
}

// NewMemoryWithSize creates a zero-filled memory of the given size.
func NewMemoryWithSize(size uint32) *Memory {
	return &Memory{
		storage: mem.NewStorage(uint64(size)),
		size:    size,
		written: make(map[uint32]struct{}),
	}
}

// Size returns the capacity in bytes.
func (m *Memory) Size() uint32 {
	return m.size
}

// InBounds reports whether n bytes starting at addr lie inside memory.
func (m *Memory) InBounds(addr, n uint32) bool {
	return uint64(addr)+uint64(n) <= uint64(m.size)
}

// Fetch32 reads the instruction word at addr.
func (m *Memory) Fetch32(addr uint32) (uint32, error) {
	return m.read32(addr, AccessFetch)
}

// Read32 reads a little-endian word at addr.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	return m.read32(addr, AccessLoad)
}

// Write32 writes a little-endian word at addr.
func (m *Memory) Write32(addr, value uint32) error {
	if !m.InBounds(addr, 4) {
		return &OutOfBoundsError{Addr: addr, Access: AccessStore}
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	if err := m.storage.Write(uint64(addr), buf[:]); err != nil {
		return fmt.Errorf("store at 0x%08x: %w", addr, err)
	}
	m.markWritten(addr, 4)
	return nil
}

func (m *Memory) markWritten(addr, n uint32) {
	last := (uint64(addr) + uint64(n) - 1) / PageSize
	for page := uint64(addr) / PageSize; page <= last; page++ {
		m.written[uint32(page)] = struct{}{}
	}
}

func (m *Memory) read32(addr uint32, access Access) (uint32, error) {
	if !m.InBounds(addr, 4) {
		return 0, &OutOfBoundsError{Addr: addr, Access: access}
	}

	data, err := m.storage.Read(uint64(addr), 4)
	if err != nil {
		return 0, fmt.Errorf("%v at 0x%08x: %w", access, addr, err)
	}
	return binary.LittleEndian.Uint32(data), nil
}

// LoadImage copies a binary image into memory starting at address 0.
func (m *Memory) LoadImage(image []byte) error {
	if len(image) == 0 {
		return nil
	}
	if uint64(len(image)) > uint64(m.size) {
		return fmt.Errorf("%w: %d bytes, memory holds %d", ErrProgramTooLarge, len(image), m.size)
	}
	if err := m.storage.Write(0, image); err != nil {
		return err
	}
	m.markWritten(0, uint32(len(image)))
	return nil
}

// Word is one aligned 4-byte memory slot.
type Word struct {
	Addr  uint32
	Bytes [4]byte
}

// Value interprets the slot as a little-endian word.
func (w Word) Value() uint32 {
	return binary.LittleEndian.Uint32(w.Bytes[:])
}

// Raw returns the slot's bytes in memory order, most significant first.
func (w Word) Raw() uint32 {
	return binary.BigEndian.Uint32(w.Bytes[:])
}

// NonZeroWords returns every aligned word that holds a nonzero byte, in
// ascending address order. Only pages that have been written are read.
func (m *Memory) NonZeroWords() ([]Word, error) {
	pages := make([]uint32, 0, len(m.written))
	for page := range m.written {
		pages = append(pages, page)
	}
	slices.Sort(pages)

	var words []Word
	for _, page := range pages {
		base := uint64(page) * PageSize
		length := min(uint64(PageSize), uint64(m.size)-base)

		data, err := m.storage.Read(base, length)
		if err != nil {
			return nil, fmt.Errorf("reading memory at 0x%08x: %w", base, err)
		}

		for off := 0; off+4 <= len(data); off += 4 {
			var w Word
			copy(w.Bytes[:], data[off:off+4])
			if w.Raw() == 0 {
				continue
			}
			w.Addr = uint32(base) + uint32(off)
			words = append(words, w)
		}
	}
	return words, nil
}
