// Package wordenc splits byte images into 32-bit words.
package wordenc

import (
	"encoding/binary"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

const WordSize = 4

// ByteOrder selects how the four bytes of a chunk map onto the word value.
// LittleEndian puts the lowest addressed byte in the least significant
// position, which prints as the reversed chunk.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(s) {
	case "", "little", "le":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	}
	return 0, errors.Errorf("unknown byte order %q (want little or big)", s)
}

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

// Set and Type make ByteOrder usable as a command line flag value.
func (o *ByteOrder) Set(s string) error {
	v, err := ParseByteOrder(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

func (o *ByteOrder) Type() string {
	return "order"
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// PutWord returns the bytes, in address order, that encode to v.
func (o ByteOrder) PutWord(v uint32) [WordSize]byte {
	var b [WordSize]byte
	o.binary().PutUint32(b[:], v)
	return b
}

type Word struct {
	Index int
	Bytes [WordSize]byte
	Value uint32
}

// Literal renders the word as a 32-bit SystemVerilog hex literal.
func (w Word) Literal() string {
	return fmt.Sprintf("32'h%08X", w.Value)
}

// Hex renders the word as eight uppercase hex digits, the $readmemh layout.
func (w Word) Hex() string {
	return fmt.Sprintf("%08X", w.Value)
}

// Words yields data as consecutive words. A trailing partial chunk is padded
// with zero bytes after the real ones, so real data always occupies the
// lowest addressed bytes of the last word.
func Words(data []byte, order ByteOrder) iter.Seq[Word] {
	return func(yield func(Word) bool) {
		for i := 0; i < len(data); i += WordSize {
			w := Word{Index: i / WordSize}
			copy(w.Bytes[:], data[i:min(i+WordSize, len(data))])
			w.Value = order.binary().Uint32(w.Bytes[:])
			if !yield(w) {
				return
			}
		}
	}
}

// Count returns the number of words needed to hold n bytes.
func Count[T constraints.Integer](n T) T {
	return (n + WordSize - 1) / WordSize
}

// AlignUp rounds n up to a whole number of words.
func AlignUp[T constraints.Integer](n T) T {
	return Count(n) * WordSize
}

// ParseLiteral accepts "32'hXXXXXXXX", "'hXXXXXXXX" or bare hex digits.
func ParseLiteral(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\''); i >= 0 {
		s = s[i+1:]
		if len(s) == 0 || (s[0] != 'h' && s[0] != 'H') {
			return 0, errors.Errorf("not a hex literal: %q", s)
		}
		s = s[1:]
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse word literal")
	}
	return uint32(v), nil
}

// Decode turns word values back into n bytes of image data.
func Decode(values []uint32, order ByteOrder, n int) []byte {
	out := make([]byte, 0, len(values)*WordSize)
	for _, v := range values {
		b := order.PutWord(v)
		out = append(out, b[:]...)
	}
	if n < len(out) {
		out = out[:n]
	}
	return out
}
