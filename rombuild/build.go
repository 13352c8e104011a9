// Package rombuild runs the ROM image pipeline: parse the hex input, check it
// against the ROM capacity, pad it and write it out either as a patched
// SystemVerilog source or as a standalone memory image.
package rombuild

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/anupcshan/romgen/artifact"
	"github.com/anupcshan/romgen/config"
	"github.com/anupcshan/romgen/membuf"
	"github.com/anupcshan/romgen/memh"
	"github.com/anupcshan/romgen/rom"
	"github.com/anupcshan/romgen/wordenc"
	"github.com/google/uuid"
	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	config.Resolved

	// Records, when set, receives a sidecar listing the parsed records.
	Records       string
	RecordsFormat string

	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

type Result struct {
	BuildID uuid.UUID
	Name    string
	Input   string
	Output  string
	Layout  rom.Layout
	Filled  int64
	// UsedWords counts the words of the padded image holding written data.
	UsedWords int64
	Checksum  uint8
	Sum16     uint16
	Records   []memh.Record
}

// LoadImage reads and parses a whole hex file. A positive limit stops the
// parse with rom.ErrCapacityExceeded once the image would grow past it.
func LoadImage(path string, limit int64, strict bool, logger *slog.Logger) (*membuf.MemBuffer, []memh.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	opts := []memh.ParserOption{memh.WithLogger(logger), memh.WithLimit(limit)}
	if !strict {
		opts = append(opts, memh.WithLenient())
	}
	buf, records, err := memh.Load(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	return buf, records, nil
}

// Build runs the pipeline for one target. The output file is only replaced
// once every stage has succeeded.
func Build(ctx context.Context, o Options) (*Result, error) {
	logger := o.logger().With("rom", o.Name)
	if err := rom.CheckCapacity(o.Capacity); err != nil {
		return nil, err
	}

	buf, records, err := LoadImage(o.Input, o.Capacity, o.Strict, logger)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return emit(o, logger, buf, records)
}

// BuildString builds a ROM holding s, truncated or zero padded to the
// capacity, in place of a parsed hex input.
func BuildString(ctx context.Context, s string, o Options) (*Result, error) {
	logger := o.logger().With("rom", o.Name)
	if err := rom.CheckCapacity(o.Capacity); err != nil {
		return nil, err
	}

	buf := membuf.NewMemBuffer()
	if _, err := buf.WriteAt(rom.FromString(s, o.Capacity), 0); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return emit(o, logger, buf, nil)
}

func emit(o Options, logger *slog.Logger, buf *membuf.MemBuffer, records []memh.Record) (*Result, error) {
	layout, err := rom.Validate(buf.Len(), o.Capacity, o.Padding)
	if err != nil {
		return nil, err
	}

	res := &Result{
		BuildID: uuid.New(),
		Name:    o.Name,
		Input:   o.Input,
		Output:  o.Output,
		Layout:  layout,
		Filled:  buf.Filled(),
		Records: records,
	}
	rom.Pad(buf, layout)
	res.UsedWords = int64(buf.Coverage(wordenc.WordSize).Count())
	image := buf.Bytes()
	res.Checksum = membuf.Checksum(image)
	res.Sum16 = membuf.Sum16(image)

	out, err := render(o, buf, image)
	if err != nil {
		return nil, err
	}
	// A failed sidecar must leave the artifact untouched.
	if o.Records != "" {
		if err := WriteRecords(o.Records, o.RecordsFormat, res); err != nil {
			return nil, err
		}
	}
	if err := WriteFileAtomic(o.Output, out, 0644); err != nil {
		return nil, err
	}

	logger.Info("ROM file created",
		"output", o.Output,
		"format", o.Format,
		"bytes", layout.DataSize,
		"words", wordenc.Count(layout.DataSize),
		"size", layout.Size,
		"capacity", layout.Capacity,
		"filled", res.Filled,
		"used_words", res.UsedWords,
	)
	return res, nil
}

func render(o Options, buf *membuf.MemBuffer, image []byte) ([]byte, error) {
	switch o.Format {
	case config.FormatSV:
		tmpl, err := os.ReadFile(o.Template)
		if err != nil {
			return nil, err
		}
		out, err := artifact.Patch(tmpl, int64(len(image)), wordenc.Words(image, o.ByteOrder), o.Markers)
		if err != nil {
			return nil, errors.Wrap(err, o.Template)
		}
		return out, nil

	case config.FormatMemh:
		var out bytes.Buffer
		if err := memh.NewEncoder(buf, buf.Len(), &out, o.ByteOrder).EncodeWords(); err != nil {
			return nil, err
		}
		return out.Bytes(), nil

	case config.FormatIHex:
		mem := gohex.NewMemory()
		if err := mem.AddBinary(o.Base, image); err != nil {
			return nil, errors.Wrap(err, "add binary")
		}
		var out bytes.Buffer
		if err := mem.DumpIntelHex(&out, 16); err != nil {
			return nil, errors.Wrap(err, "dump intel hex")
		}
		return out.Bytes(), nil

	case config.FormatBin:
		return image, nil
	}
	return nil, errors.Errorf("unknown output format %q", o.Format)
}

// BuildAll builds independent targets concurrently, at most parallelism at a
// time. The first failure cancels the builds that have not started yet.
func BuildAll(ctx context.Context, targets []Options, parallelism int) ([]*Result, error) {
	results := make([]*Result, len(targets))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(parallelism, 1))
	for i, o := range targets {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			res, err := Build(egCtx, o)
			if err != nil {
				return errors.Wrapf(err, "rom %s", o.Name)
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
