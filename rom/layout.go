package rom

import (
	"fmt"
	"strings"

	"github.com/anupcshan/romgen/membuf"
	"github.com/anupcshan/romgen/wordenc"
	"github.com/pkg/errors"
)

var (
	ErrEmptyImage       = errors.New("empty image")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidCapacity  = errors.New("invalid capacity")
)

// CapacityExceededError reports an image that does not fit the ROM.
type CapacityExceededError struct {
	Size     int64
	Capacity int64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("data %d bytes exceeds ROM size of %d bytes", e.Size, e.Capacity)
}

func (e *CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// Policy decides how far a valid image is padded.
type Policy int

const (
	// PadToCapacity fills the whole ROM with zeros after the data.
	PadToCapacity Policy = iota
	// PadToWord only completes the last word.
	PadToWord
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "capacity":
		return PadToCapacity, nil
	case "word":
		return PadToWord, nil
	}
	return 0, errors.Errorf("unknown padding policy %q (want capacity or word)", s)
}

func (p Policy) String() string {
	if p == PadToWord {
		return "word"
	}
	return "capacity"
}

type Layout struct {
	// Capacity is the declared ROM size in bytes.
	Capacity int64
	// DataSize is the image size before padding.
	DataSize int64
	// Size is the padded size written to the artifact.
	Size int64
}

func (l Layout) Words() int64 {
	return l.Size / wordenc.WordSize
}

func (l Layout) PadBytes() int64 {
	return l.Size - l.DataSize
}

// CheckCapacity reports ErrInvalidCapacity unless capacity is a positive
// multiple of the word size.
func CheckCapacity(capacity int64) error {
	if capacity <= 0 || capacity%wordenc.WordSize != 0 {
		return errors.Wrapf(ErrInvalidCapacity,
			"%d bytes is not a positive multiple of %d", capacity, wordenc.WordSize)
	}
	return nil
}

// Validate checks an image of size bytes against a ROM of capacity bytes and
// returns the layout to build.
func Validate(size, capacity int64, policy Policy) (Layout, error) {
	if err := CheckCapacity(capacity); err != nil {
		return Layout{}, err
	}
	if size == 0 {
		return Layout{}, ErrEmptyImage
	}
	if size > capacity {
		return Layout{}, errors.WithStack(&CapacityExceededError{Size: size, Capacity: capacity})
	}

	l := Layout{
		Capacity: capacity,
		DataSize: size,
		Size:     capacity,
	}
	if policy == PadToWord {
		l.Size = wordenc.AlignUp(size)
	}
	return l, nil
}

// Pad grows buf with zero bytes up to the layout size.
func Pad(buf *membuf.MemBuffer, l Layout) {
	buf.Grow(l.Size)
}

// FromString returns s as a capacity sized ROM image. Longer strings are
// truncated, shorter ones zero padded.
func FromString(s string, capacity int64) []byte {
	out := make([]byte, capacity)
	copy(out, s)
	return out
}
