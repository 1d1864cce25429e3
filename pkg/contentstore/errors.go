package contentstore

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrBlobNotFound indicates no blob is stored under the requested key
	ErrBlobNotFound = errors.New("blob not found")

	// ErrQuotaExceeded indicates the blob store refused a write for capacity reasons
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrInvalidDocument indicates an imported document lacks version or entries
	ErrInvalidDocument = errors.New("invalid data structure")

	// ErrUnknownContentType indicates a type id the schema registry does not know
	ErrUnknownContentType = errors.New("unknown content type")

	// ErrNoEntries indicates an export was requested for an empty bucket
	ErrNoEntries = errors.New("no entries to export")
)

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
