package memh

import (
	"bufio"
	"io"

	"github.com/anupcshan/romgen/wordenc"
)

// Encoder writes a byte image as one 32-bit word per line, the layout
// $readmemh expects for a 32-bit wide memory.
type Encoder struct {
	r    io.ReaderAt
	w    io.Writer
	size int64

	Order wordenc.ByteOrder
}

func NewEncoder(r io.ReaderAt, size int64, w io.Writer, order wordenc.ByteOrder) *Encoder {
	return &Encoder{
		r:     r,
		w:     w,
		size:  size,
		Order: order,
	}
}

func (e *Encoder) EncodeWords() error {
	data := make([]byte, e.size)
	if _, err := e.r.ReadAt(data, 0); err != nil && err != io.EOF {
		return err
	}

	bw := bufio.NewWriter(e.w)
	for word := range wordenc.Words(data, e.Order) {
		if _, err := bw.WriteString(word.Hex() + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}
