package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// PartialRecord describes a transfer that ended before all bytes arrived.
// It is stored next to the partial file so the operator can tell a
// truncated file from a complete one.
type PartialRecord struct {
	FileName   string    `msgpack:"file_name"`
	Path       string    `msgpack:"path"`
	Expected   int64     `msgpack:"expected"`
	Received   int64     `msgpack:"received"`
	Reason     string    `msgpack:"reason"`
	Session    string    `msgpack:"session"`
	RecordedAt time.Time `msgpack:"recorded_at"`
}

// WritePartialRecord stores a record for w at "<path>.partial".
func WritePartialRecord(w *FileWriter, reason, session string) (string, error) {
	record := PartialRecord{
		FileName:   w.Metadata.FileName,
		Path:       w.Path,
		Expected:   w.Metadata.FileSize,
		Received:   w.ReceivedBytes,
		Reason:     reason,
		Session:    session,
		RecordedAt: time.Now().UTC(),
	}

	data, err := msgpack.Marshal(&record)
	if err != nil {
		return "", NewError("encode partial record", err)
	}

	path := w.Path + PartialSuffix
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", NewFileError("write partial record", path, err)
	}
	return path, nil
}

// ReadPartialRecord loads a record written by WritePartialRecord.
func ReadPartialRecord(path string) (*PartialRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewFileError("read partial record", path, err)
	}

	var record PartialRecord
	if err := msgpack.Unmarshal(data, &record); err != nil {
		return nil, NewFileError("decode partial record", path, err)
	}
	return &record, nil
}

// earlierPartial returns the record an earlier incomplete transfer of name
// left in dir, or nil when there is none.
func earlierPartial(dir, name string) *PartialRecord {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ReceivedPrefix+name) + PartialSuffix
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	record, err := ReadPartialRecord(path)
	if err != nil {
		return nil
	}
	return record
}

func (r *PartialRecord) String() string {
	return fmt.Sprintf("%s: %d of %d bytes (%s)", r.FileName, r.Received, r.Expected, r.Reason)
}
