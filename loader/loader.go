// Package loader reads raw binary program images for the emulator.
//
// An image is a flat sequence of little-endian instruction and data words
// that is copied verbatim to address 0.
package loader

import (
	"errors"
	"fmt"
	"os"
)

// ErrImageTooLarge is returned when an image does not fit in memory.
var ErrImageTooLarge = errors.New("image exceeds memory capacity")

// LoadError reports a failure to load the image at Path.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Image is a program image read from disk.
type Image struct {
	// Path is the file the image was read from.
	Path string
	// Data holds the raw bytes, to be placed at address 0.
	Data []byte
}

// Size returns the image size in bytes.
func (img *Image) Size() int {
	return len(img.Data)
}

// Load reads the image at path and checks that it fits in capacity bytes.
func Load(path string, capacity uint32) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	if uint64(len(data)) > uint64(capacity) {
		return nil, &LoadError{
			Path: path,
			Err:  fmt.Errorf("%w: %d bytes, capacity %d", ErrImageTooLarge, len(data), capacity),
		}
	}

	return &Image{Path: path, Data: data}, nil
}
