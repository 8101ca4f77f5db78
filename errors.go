package assetgate

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNotFound is returned when an object does not exist in storage
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a storage key fails validation
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorKind classifies a storage failure for diagnostics.
type ErrorKind string

const (
	// KindTransport is a network or protocol failure talking to storage.
	KindTransport ErrorKind = "transport"
	// KindTimeout is a deadline hit while waiting on storage.
	KindTimeout ErrorKind = "timeout"
	// KindUnknown is any failure that fits neither of the above.
	KindUnknown ErrorKind = "unknown"
)

// StorageError is returned by ObjectStore implementations when a lookup
// fails for a reason other than the object being absent.
type StorageError struct {
	Kind ErrorKind
	Key  string
	Err  error
}

// NewStorageError wraps err for key, deriving its kind with ClassifyError.
func NewStorageError(key string, err error) *StorageError {
	return &StorageError{Kind: ClassifyError(err), Key: key, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s error for %q: %v", e.Kind, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind recorded on err, or classifies err when it
// is not a StorageError.
func KindOf(err error) ErrorKind {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ClassifyError(err)
}

// ClassifyError derives an ErrorKind from well known error types.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindTransport
	}

	return KindUnknown
}
