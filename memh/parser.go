// Package memh reads and writes the line oriented hex memory image format
// understood by $readmemh: "@<hex address>" lines move the load address,
// every other non-blank line holds hex encoded data bytes.
package memh

import (
	"bufio"
	"encoding/hex"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/anupcshan/romgen/membuf"
	"github.com/anupcshan/romgen/rom"
	"github.com/pkg/errors"
)

var (
	ErrMalformedAddress = errors.New("malformed address")
	ErrInvalidHexDigits = errors.New("invalid hex digits")
)

type RecordKind string

const (
	AddressRecord RecordKind = "address"
	DataRecord    RecordKind = "data"
	SkippedRecord RecordKind = "skipped"
)

// Record describes one consumed line. For address records Length is the
// number of zero bytes inserted to reach Address.
type Record struct {
	Kind    RecordKind `json:"kind" cbor:"kind"`
	Line    int        `json:"line" cbor:"line"`
	Address uint64     `json:"address" cbor:"address"`
	Offset  int64      `json:"offset" cbor:"offset"`
	Length  int64      `json:"length" cbor:"length"`
}

// grower is implemented by writers that can extend themselves with zero
// bytes without storing them.
type grower interface {
	Grow(n int64)
}

type Parser struct {
	sc *bufio.Scanner
	w  io.WriterAt

	lenient bool
	limit   int64
	logger  *slog.Logger

	line      int
	offset    int64
	cursor    uint64
	hasCursor bool

	Records []Record

	eof bool
}

type ParserOptions struct {
	lenient bool
	limit   int64
	logger  *slog.Logger
}

type ParserOption func(*ParserOptions)

// WithLenient skips data lines that are not valid hex instead of failing.
// Skipped lines are logged and never reach the image.
func WithLenient() ParserOption {
	return func(o *ParserOptions) {
		o.lenient = true
	}
}

// WithLimit fails with rom.ErrCapacityExceeded as soon as a gap or a data
// line would take the image past n bytes.
func WithLimit(n int64) ParserOption {
	return func(o *ParserOptions) {
		o.limit = n
	}
}

func WithLogger(l *slog.Logger) ParserOption {
	return func(o *ParserOptions) {
		o.logger = l
	}
}

func NewParser(r io.Reader, w io.WriterAt, opts ...ParserOption) *Parser {
	po := &ParserOptions{}
	for _, opt := range opts {
		opt(po)
	}
	if po.logger == nil {
		po.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), math.MaxInt32)
	return &Parser{
		sc:      sc,
		w:       w,
		lenient: po.lenient,
		limit:   po.limit,
		logger:  po.logger,
	}
}

// ReadRecord consumes the next non-blank line.
func (p *Parser) ReadRecord() error {
	var line string
	for {
		if !p.sc.Scan() {
			p.eof = true
			if err := p.sc.Err(); err != nil {
				return errors.Wrapf(err, "line %d", p.line+1)
			}
			return nil
		}
		p.line++
		line = strings.TrimSpace(p.sc.Text())
		if line != "" {
			break
		}
	}

	if strings.HasPrefix(line, "@") {
		return p.readAddress(line[1:])
	}
	return p.readData(line)
}

func (p *Parser) readAddress(s string) error {
	addr, err := strconv.ParseUint(strings.TrimSpace(s), 16, 64)
	if err != nil {
		return errors.Wrapf(ErrMalformedAddress, "line %d: %q", p.line, s)
	}
	p.logger.Debug("parsed address", "line", p.line, "address", addr)

	var gap uint64
	if p.hasCursor && addr != p.cursor {
		if addr < p.cursor {
			return errors.Wrapf(ErrMalformedAddress,
				"line %d: address 0x%08X is below current address 0x%08X", p.line, addr, p.cursor)
		}
		gap = addr - p.cursor
		if gap > uint64(math.MaxInt64-p.offset) {
			return errors.Wrapf(ErrMalformedAddress,
				"line %d: address 0x%X is out of range", p.line, addr)
		}
		if err := p.checkLimit(int64(gap)); err != nil {
			return err
		}
		p.logger.Debug("padding data", "from", p.cursor, "to", addr, "bytes", gap)
		if err := p.pad(int64(gap)); err != nil {
			return err
		}
	}

	p.Records = append(p.Records, Record{
		Kind:    AddressRecord,
		Line:    p.line,
		Address: addr,
		Offset:  p.offset - int64(gap),
		Length:  int64(gap),
	})
	p.cursor = addr
	p.hasCursor = true
	return nil
}

func (p *Parser) checkLimit(n int64) error {
	if p.limit <= 0 || n <= p.limit-p.offset {
		return nil
	}
	return errors.Wrapf(&rom.CapacityExceededError{Size: p.offset + n, Capacity: p.limit},
		"line %d", p.line)
}

func (p *Parser) pad(n int64) error {
	if g, ok := p.w.(grower); ok {
		p.offset += n
		g.Grow(p.offset)
		return nil
	}

	zeros := make([]byte, min(n, 4096))
	for n > 0 {
		chunk := zeros[:min(n, int64(len(zeros)))]
		if _, err := p.w.WriteAt(chunk, p.offset); err != nil {
			return err
		}
		p.offset += int64(len(chunk))
		n -= int64(len(chunk))
	}
	return nil
}

func decodeHex(line string) ([]byte, error) {
	var out []byte
	for _, field := range strings.Fields(line) {
		b, err := hex.DecodeString(field)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (p *Parser) readData(line string) error {
	data, err := decodeHex(line)
	if err != nil {
		if !p.lenient {
			return errors.Wrapf(ErrInvalidHexDigits, "line %d: %q: %v", p.line, line, err)
		}
		p.logger.Warn("skipping invalid hex line", "line", p.line, "err", err)
		p.Records = append(p.Records, Record{
			Kind:    SkippedRecord,
			Line:    p.line,
			Address: p.cursor,
			Offset:  p.offset,
		})
		return nil
	}

	if err := p.checkLimit(int64(len(data))); err != nil {
		return err
	}
	if _, err := p.w.WriteAt(data, p.offset); err != nil {
		return err
	}

	p.Records = append(p.Records, Record{
		Kind:    DataRecord,
		Line:    p.line,
		Address: p.cursor,
		Offset:  p.offset,
		Length:  int64(len(data)),
	})
	p.offset += int64(len(data))
	if p.hasCursor {
		p.cursor += uint64(len(data))
	}
	return nil
}

func (p *Parser) HasNext() bool {
	return !p.eof
}

// Size is the number of image bytes produced so far, gap fill included.
func (p *Parser) Size() int64 {
	return p.offset
}

// Load parses a whole hex image from r into a fresh MemBuffer.
func Load(r io.Reader, opts ...ParserOption) (*membuf.MemBuffer, []Record, error) {
	buf := membuf.NewMemBuffer()
	parser := NewParser(r, buf, opts...)
	for parser.HasNext() {
		if err := parser.ReadRecord(); err != nil {
			return nil, nil, err
		}
	}
	return buf, parser.Records, nil
}
