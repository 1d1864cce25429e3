package contentstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// QuotaExceededMessage is shown to the user when a persist hits the capacity limit.
const QuotaExceededMessage = "Storage quota exceeded. Please export your data and clear some entries."

// DocumentsConfig configures a Documents adapter.
type DocumentsConfig struct {
	Key      string       // Storage key (default: DefaultStorageKey)
	Clock    Clock        // Time source (default: SystemClock)
	Notifier Notifier     // Receives quota warnings (default: LogNotifier)
	Logger   *slog.Logger // Diagnostics (default: slog.Default)
}

// Documents persists a Document as a single blob under one fixed key.
// Every write covers the whole document.
type Documents struct {
	blobs    BlobStore
	key      string
	clock    Clock
	notifier Notifier
	logger   *slog.Logger
}

// NewDocuments wraps blobs.
func NewDocuments(blobs BlobStore, cfg DocumentsConfig) *Documents {
	if cfg.Key == "" {
		cfg.Key = DefaultStorageKey
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewLogNotifier(cfg.Logger)
	}
	return &Documents{
		blobs:    blobs,
		key:      cfg.Key,
		clock:    cfg.Clock,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}
}

// Key returns the storage key.
func (d *Documents) Key() string {
	return d.key
}

// Load returns the persisted document. It never fails: a missing blob, a
// read or parse error, or a version mismatch all yield a fresh empty document.
func (d *Documents) Load(ctx context.Context) *Document {
	raw, err := d.blobs.Get(ctx, d.key)
	if err != nil {
		if !errors.Is(err, ErrBlobNotFound) {
			d.logger.ErrorContext(ctx, "error loading from storage", "key", d.key, "err", err)
		}
		return NewDocument(d.clock.Now())
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		d.logger.ErrorContext(ctx, "error parsing stored document", "key", d.key, "err", err)
		return NewDocument(d.clock.Now())
	}
	if doc.Version != StorageVersion {
		d.logger.WarnContext(ctx, "storage version mismatch, reinitializing",
			"key", d.key, "found", doc.Version, "expected", StorageVersion)
		return NewDocument(d.clock.Now())
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string][]*Entry)
	}
	return &doc
}

// Save stamps doc.LastUpdated and writes it. The stamp is only kept when the
// write succeeds. Quota failures raise a blocking user notification.
func (d *Documents) Save(ctx context.Context, doc *Document) error {
	prev := doc.LastUpdated
	doc.LastUpdated = NewTimestamp(d.clock.Now())

	raw, err := json.Marshal(doc)
	if err == nil {
		err = d.blobs.Put(ctx, d.key, raw)
	}
	if err != nil {
		doc.LastUpdated = prev
		d.logger.ErrorContext(ctx, "error saving to storage", "key", d.key, "err", err)
		if errors.Is(err, ErrQuotaExceeded) {
			d.notifier.Notify(ctx, Notification{
				Level:    NotificationWarning,
				Message:  QuotaExceededMessage,
				Blocking: true,
			})
		}
		return &StorageError{Op: "save", Key: d.key, Err: err}
	}
	return nil
}

// EntriesByType returns the persisted entries of one type.
func (d *Documents) EntriesByType(ctx context.Context, contentType string) []*Entry {
	entries := d.Load(ctx).Entries[contentType]
	if entries == nil {
		return []*Entry{}
	}
	return entries
}

// EntryByID returns one persisted entry.
func (d *Documents) EntryByID(ctx context.Context, contentType, id string) (*Entry, bool) {
	for _, e := range d.EntriesByType(ctx, contentType) {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// SaveEntry upserts entry into its bucket of the persisted document.
func (d *Documents) SaveEntry(ctx context.Context, entry *Entry) error {
	doc := d.Load(ctx)
	if i := doc.indexOf(entry.Type, entry.ID); i >= 0 {
		doc.Entries[entry.Type][i] = entry
	} else {
		doc.Entries[entry.Type] = append(doc.Entries[entry.Type], entry)
	}
	return d.Save(ctx, doc)
}

// DeleteEntry removes an entry from the persisted document. Missing buckets are ignored.
func (d *Documents) DeleteEntry(ctx context.Context, contentType, id string) error {
	doc := d.Load(ctx)
	if _, ok := doc.Entries[contentType]; !ok {
		return nil
	}
	doc.Entries[contentType] = removeEntry(doc.Entries[contentType], id)
	return d.Save(ctx, doc)
}

// DeleteEntriesByType drops a whole bucket from the persisted document.
func (d *Documents) DeleteEntriesByType(ctx context.Context, contentType string) error {
	doc := d.Load(ctx)
	delete(doc.Entries, contentType)
	return d.Save(ctx, doc)
}

// ClearStorage removes the persisted blob entirely.
func (d *Documents) ClearStorage(ctx context.Context) error {
	if err := d.blobs.Delete(ctx, d.key); err != nil {
		return &StorageError{Op: "clear", Key: d.key, Err: err}
	}
	return nil
}

// TotalEntryCount counts all persisted entries.
func (d *Documents) TotalEntryCount(ctx context.Context) int {
	return d.Load(ctx).TotalEntries()
}

// EntryCountByType counts persisted entries of one type.
func (d *Documents) EntryCountByType(ctx context.Context, contentType string) int {
	return len(d.EntriesByType(ctx, contentType))
}

// ExportJSON returns the persisted document as formatted JSON.
func (d *Documents) ExportJSON(ctx context.Context) ([]byte, error) {
	return EncodeDocument(d.Load(ctx))
}

// ImportJSON replaces the persisted document wholesale with raw after a
// structural check. On failure the persisted document is left untouched.
func (d *Documents) ImportJSON(ctx context.Context, raw []byte) error {
	doc, err := ParseDocument(raw)
	if err != nil {
		d.logger.ErrorContext(ctx, "error importing data", "err", err)
		return err
	}
	return d.Save(ctx, doc)
}

func removeEntry(entries []*Entry, id string) []*Entry {
	kept := entries[:0:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return kept
}
