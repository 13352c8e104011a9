package rombuild

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/anupcshan/romgen/memh"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// WriteFileAtomic replaces path with data. The data is synced to a temp
// file next to path and renamed over it, so readers see either the old or the
// new contents and a failed build leaves the old file in place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Chmod(perm); err != nil {
		return errors.Wrapf(err, "chmod %s", path)
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrapf(err, "sync %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "replace %s", path)
	}
	return nil
}

const (
	RecordsJSON = "json"
	RecordsCBOR = "cbor"
)

// RecordsFile is the sidecar describing how an image was assembled.
type RecordsFile struct {
	BuildID  string        `json:"build_id" cbor:"build_id"`
	Input    string        `json:"input" cbor:"input"`
	DataSize int64         `json:"data_size" cbor:"data_size"`
	Size     int64         `json:"size" cbor:"size"`
	Filled   int64         `json:"filled" cbor:"filled"`
	Records  []memh.Record `json:"records" cbor:"records"`
}

func newRecordsFile(res *Result) RecordsFile {
	return RecordsFile{
		BuildID:  res.BuildID.String(),
		Input:    res.Input,
		DataSize: res.Layout.DataSize,
		Size:     res.Layout.Size,
		Filled:   res.Filled,
		Records:  res.Records,
	}
}

// WriteRecords stores the records of a build next to its output.
func WriteRecords(path, format string, res *Result) error {
	var (
		data []byte
		err  error
	)
	rf := newRecordsFile(res)
	switch format {
	case "", RecordsJSON:
		data, err = json.MarshalIndent(rf, "", "  ")
	case RecordsCBOR:
		data, err = cbor.Marshal(rf)
	default:
		return errors.Errorf("unknown records format %q", format)
	}
	if err != nil {
		return errors.Wrap(err, "encode records")
	}
	return WriteFileAtomic(path, data, 0644)
}

// ReadRecords loads a sidecar written by WriteRecords.
func ReadRecords(path string) (*RecordsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rf RecordsFile
	if err := json.Unmarshal(data, &rf); err == nil {
		return &rf, nil
	}
	if err := cbor.Unmarshal(data, &rf); err != nil {
		return nil, errors.Wrapf(err, "decode records %s", path)
	}
	return &rf, nil
}
