package transfer

import (
	"errors"
	"fmt"
)

var (
	ErrProtocolViolation     = errors.New("protocol violation")
	ErrConcurrentTransfer    = errors.New("concurrent transfer")
	ErrIncompleteTransfer    = errors.New("incomplete transfer")
	ErrMalformedAnnouncement = errors.New("malformed file announcement")
	ErrTransportFailure      = errors.New("transport failure")
	ErrInvalidFileName       = errors.New("invalid file name")
	ErrChannelNotOpen        = errors.New("channel not open")
	ErrChannelClosed         = errors.New("channel closed")
)

type TransferError struct {
	Op      string
	File    string
	Err     error
	Details string
}

func (e *TransferError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.File != "" {
		msg = fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *TransferError {
	return &TransferError{Op: op, Err: err}
}

func NewFileError(op, file string, err error) *TransferError {
	return &TransferError{Op: op, File: file, Err: err}
}

func WrapError(op string, err error, details string) *TransferError {
	return &TransferError{Op: op, Err: err, Details: details}
}

// ConflictError reports a file announcement that arrived while another
// inbound transfer was still running. The running transfer is detached and
// returned in Dropped; the announced one is never started.
type ConflictError struct {
	Announced FileMetadata
	Dropped   *FileWriter
}

func (e *ConflictError) Error() string {
	active := ""
	if e.Dropped != nil {
		active = e.Dropped.Metadata.FileName
	}
	return fmt.Sprintf("%v: %q announced while %q was still receiving", ErrConcurrentTransfer, e.Announced.FileName, active)
}

func (e *ConflictError) Unwrap() error {
	return ErrConcurrentTransfer
}
