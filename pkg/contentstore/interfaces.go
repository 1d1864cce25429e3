package contentstore

import (
	"context"
	"time"
)

// BlobStore is the durable key/value slot the document is persisted to.
type BlobStore interface {
	// Get returns the value stored under key, or ErrBlobNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	// Capacity failures are reported as ErrQuotaExceeded.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// TypeRegistry enumerates the known content type ids in display order.
type TypeRegistry interface {
	IDs() []string
}

// EventSink receives store lifecycle events after they are committed.
type EventSink interface {
	// EntryCreated is fired after an entry is created and persisted
	EntryCreated(ctx context.Context, entry *Entry) error

	// EntryUpdated is fired after an entry is merged in memory
	EntryUpdated(ctx context.Context, entry *Entry) error

	// EntryDeleted is fired after an entry is removed and the document persisted
	EntryDeleted(ctx context.Context, contentType, id string) error

	// DocumentSaved is fired after every successful persist
	DocumentSaved(ctx context.Context, lastUpdated time.Time, total int) error

	// DocumentCleared is fired after Clear
	DocumentCleared(ctx context.Context) error
}

// NotificationLevel mirrors the portal's toast levels.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
	NotificationWarning NotificationLevel = "warning"
	NotificationInfo    NotificationLevel = "info"
)

// Notification is a user-visible message.
type Notification struct {
	Level    NotificationLevel `json:"level"`
	Message  string            `json:"message"`
	Blocking bool              `json:"blocking"`
}

// Notifier surfaces messages to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Listener is called with a snapshot of the document after each committed change.
type Listener func(doc *Document)
