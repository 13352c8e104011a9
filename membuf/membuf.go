package membuf

import (
	"io"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

type offsetBuffer struct {
	offset int64
	buf    []byte
}

func (o *offsetBuffer) end() int64 {
	return o.offset + int64(len(o.buf))
}

// MemBuffer is a sparse byte image. Ranges that were never written read back
// as zero, so address gaps and capacity padding cost no memory.
type MemBuffer struct {
	buffers []*offsetBuffer
	size    int64
}

func NewMemBuffer() *MemBuffer {
	return &MemBuffer{}
}

// findWriteBuffer returns the buffer ending exactly at off, provided that
// appending n bytes to it does not run into the next buffer.
func (m *MemBuffer) findWriteBuffer(off int64, n int) *offsetBuffer {
	for idx, buf := range m.buffers {
		if buf.end() != off {
			continue
		}
		if idx+1 < len(m.buffers) && m.buffers[idx+1].offset <= off+int64(n) {
			return nil
		}
		return buf
	}

	return nil
}

func (m *MemBuffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf("membuf: negative offset %d", off)
	}
	if len(p) == 0 {
		return 0, nil
	}

	if writeBuf := m.findWriteBuffer(off, len(p)); writeBuf != nil {
		writeBuf.buf = append(writeBuf.buf, p...)
	} else {
		m.merge(p, off)
	}

	if end := off + int64(len(p)); end > m.size {
		m.size = end
	}
	return len(p), nil
}

// merge folds p and every buffer touching [off, off+len(p)] into a single
// buffer. New data wins over old data where they overlap.
func (m *MemBuffer) merge(p []byte, off int64) {
	begin, end := off, off+int64(len(p))
	var keep, touched []*offsetBuffer
	for _, buf := range m.buffers {
		if buf.end() < begin || buf.offset > end {
			keep = append(keep, buf)
			continue
		}
		touched = append(touched, buf)
	}

	for _, buf := range touched {
		begin = min(begin, buf.offset)
		end = max(end, buf.end())
	}

	merged := &offsetBuffer{
		offset: begin,
		buf:    make([]byte, end-begin),
	}
	for _, buf := range touched {
		copy(merged.buf[buf.offset-begin:], buf.buf)
	}
	copy(merged.buf[off-begin:], p)

	m.buffers = append(keep, merged)
	sort.Slice(m.buffers, func(i, j int) bool {
		return m.buffers[i].offset < m.buffers[j].offset
	})
}

func (m *MemBuffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf("membuf: negative offset %d", off)
	}
	if off >= m.size {
		return 0, io.EOF
	}

	n := len(p)
	if rem := m.size - off; int64(n) > rem {
		n = int(rem)
	}
	clear(p[:n])

	for _, buf := range m.buffers {
		if buf.end() <= off || buf.offset >= off+int64(n) {
			continue
		}
		left := max(off, buf.offset)
		right := min(off+int64(n), buf.end())
		copy(p[left-off:right-off], buf.buf[left-buf.offset:right-buf.offset])
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Grow extends the image with zero bytes up to a length of at least n.
func (m *MemBuffer) Grow(n int64) {
	if n > m.size {
		m.size = n
	}
}

func (m *MemBuffer) Len() int64 {
	return m.size
}

// Bytes returns a flattened copy of the whole image.
func (m *MemBuffer) Bytes() []byte {
	out := make([]byte, m.size)
	for _, buf := range m.buffers {
		copy(out[buf.offset:], buf.buf)
	}
	return out
}

func (m *MemBuffer) Reader() io.Reader {
	return io.NewSectionReader(m, 0, m.size)
}

// Written returns the number of bytes that were explicitly written.
// Buffers never overlap, so their lengths add up exactly.
func (m *MemBuffer) Written() int64 {
	var n int64
	for _, buf := range m.buffers {
		n += int64(len(buf.buf))
	}
	return n
}

// Coverage returns one bit per unit sized block of [0, Len()), set when any
// byte of the block was written. The set is as large as Len()/unit, so only
// call it on images whose size has been checked.
func (m *MemBuffer) Coverage(unit int64) *bitset.BitSet {
	cov := bitset.New(uint((m.size + unit - 1) / unit))
	for _, buf := range m.buffers {
		for i := buf.offset / unit; i <= (buf.end()-1)/unit; i++ {
			cov.Set(uint(i))
		}
	}
	return cov
}

// Filled returns the number of zero bytes that exist only because of Grow or
// of a write past a gap.
func (m *MemBuffer) Filled() int64 {
	return m.size - m.Written()
}

// Checksum returns the two's complement of the byte sum of p.
func Checksum(p []byte) uint8 {
	var csum uint8
	for _, b := range p {
		csum += b
	}

	return ^csum + 1
}

func Sum16(p []byte) uint16 {
	var sum uint16
	for _, b := range p {
		sum += uint16(b)
	}
	return sum
}

var _ io.WriterAt = (*MemBuffer)(nil)
var _ io.ReaderAt = (*MemBuffer)(nil)
