package contentstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Option configures a Store
type Option func(*Store)

// WithClock sets the time source used for timestamps and the auto-save timer
func WithClock(clock Clock) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithAutoSaveDelay sets the coalescing delay applied after UpdateEntry
func WithAutoSaveDelay(d time.Duration) Option {
	return func(s *Store) {
		s.delay = d
	}
}

// WithEventSink sets the event sink
func WithEventSink(sink EventSink) Option {
	return func(s *Store) {
		s.events = sink
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithIDGenerator replaces the UUID generator used for new entries
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// WithPersistTimeout bounds the write performed when the auto-save timer fires
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.persistTimeout = d
	}
}

// Store is the authoritative in-memory copy of the content document.
//
// Create, delete, Clear and Save persist immediately. UpdateEntry only
// re-arms the auto-save timer. All operations serialize on one mutex.
// Listeners run after the mutex is released, one snapshot at a time and in
// commit order; a listener must not call mutating Store methods.
type Store struct {
	docs     *Documents
	registry TypeRegistry

	clock          Clock
	delay          time.Duration
	persistTimeout time.Duration
	events         EventSink
	logger         *slog.Logger
	newID          func() (string, error)

	mu       sync.Mutex
	doc      *Document
	autosave *AutoSaver
	seq      uint64 // bumped for every published snapshot

	pubMu     sync.Mutex
	published uint64

	subMu     sync.Mutex
	listeners map[int]Listener
	nextSub   int
}

// New loads the persisted document through docs and returns a Store over it.
func New(docs *Documents, registry TypeRegistry, options ...Option) *Store {
	s := &Store{
		docs:           docs,
		registry:       registry,
		clock:          SystemClock(),
		delay:          DefaultAutoSaveDelay,
		persistTimeout: 30 * time.Second,
		events:         NewNoopEventSink(),
		logger:         slog.Default(),
		newID:          newUUID,
		listeners:      make(map[int]Listener),
	}
	for _, option := range options {
		option(s)
	}
	s.autosave = NewAutoSaver(s.clock, s.delay, s.autoSave)
	s.doc = docs.Load(context.Background())
	return s
}

// nextTimestamp stamps now, moved one millisecond past prev when the
// millisecond truncation would not put it strictly after prev.
func nextTimestamp(now time.Time, prev Timestamp) Timestamp {
	ts := NewTimestamp(now)
	if !prev.IsZero() && !ts.After(prev.Time) {
		ts = NewTimestamp(prev.Add(time.Millisecond))
	}
	return ts
}

func newUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Subscribe registers l. It is called immediately with the current state and
// again after every committed change. The returned func unsubscribes.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.pubMu.Lock()
	s.mu.Lock()
	snapshot, seq := s.doc.Clone(), s.seq
	s.mu.Unlock()
	if seq > s.published {
		s.published = seq
	}

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	s.subMu.Unlock()

	l(snapshot)
	s.pubMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.listeners, id)
			s.subMu.Unlock()
		})
	}
}

// snapshotLocked clones the document for publishing and stamps it with the
// next sequence number. s.mu must be held.
func (s *Store) snapshotLocked() (*Document, uint64) {
	s.seq++
	return s.doc.Clone(), s.seq
}

// publish hands snapshot to every listener unless a later snapshot has
// already been delivered.
func (s *Store) publish(snapshot *Document, seq uint64) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if seq <= s.published {
		return
	}
	s.published = seq

	s.subMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.subMu.Unlock()

	for _, l := range ls {
		l(snapshot.Clone())
	}
}

// CreateEntry appends a new entry of contentType and persists immediately.
// Persistence failures are reported through the Notifier and logs, not
// returned; the error covers id generation only.
func (s *Store) CreateEntry(ctx context.Context, contentType string, data map[string]any) (*Entry, error) {
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	now := NewTimestamp(s.clock.Now())
	entry := &Entry{
		ID:        id,
		Type:      contentType,
		CreatedAt: now,
		UpdatedAt: now,
		Data:      cloneMap(data),
	}
	if entry.Data == nil {
		entry.Data = map[string]any{}
	}

	s.mu.Lock()
	s.doc.Entries[contentType] = append(s.doc.Entries[contentType], entry)
	saved := s.persistLocked(ctx)
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot, seq)
	created := entry.Clone()
	s.emit(ctx, "entry_created", s.events.EntryCreated(ctx, created))
	s.emitSaved(ctx, saved, snapshot)
	return created, nil
}

// UpdateEntry shallow-merges partial into the entry's data and schedules an
// auto-save. An unknown type or id is a silent no-op.
func (s *Store) UpdateEntry(contentType, id string, partial map[string]any) {
	s.mu.Lock()
	i := s.doc.indexOf(contentType, id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	existing := s.doc.Entries[contentType][i]
	merged := existing.Clone()
	if merged.Data == nil {
		merged.Data = map[string]any{}
	}
	for k, v := range partial {
		merged.Data[k] = cloneValue(v)
	}
	merged.UpdatedAt = nextTimestamp(s.clock.Now(), existing.UpdatedAt)
	s.doc.Entries[contentType][i] = merged
	s.autosave.Arm()
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot, seq)
	s.emit(context.Background(), "entry_updated", s.events.EntryUpdated(context.Background(), merged.Clone()))
}

// DeleteEntry removes an entry and persists immediately. A missing bucket is a no-op.
func (s *Store) DeleteEntry(ctx context.Context, contentType, id string) {
	s.mu.Lock()
	entries, ok := s.doc.Entries[contentType]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.doc.Entries[contentType] = removeEntry(entries, id)
	saved := s.persistLocked(ctx)
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot, seq)
	s.emit(ctx, "entry_deleted", s.events.EntryDeleted(ctx, contentType, id))
	s.emitSaved(ctx, saved, snapshot)
}

// Reload discards in-memory state, including unsaved edits, and reloads
// the persisted document.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	s.autosave.Cancel()
	s.doc = s.docs.Load(ctx)
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot, seq)
}

// Clear resets to an empty document and persists it immediately.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.doc = NewDocument(s.clock.Now())
	saved := s.persistLocked(ctx)
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot, seq)
	s.emit(ctx, "document_cleared", s.events.DocumentCleared(ctx))
	s.emitSaved(ctx, saved, snapshot)
}

// Save persists the current state now, independent of the auto-save timer.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	err := s.persistLocked(ctx)
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot, seq)
	s.emitSaved(ctx, err, snapshot)
	return err
}

// Flush persists only if an auto-save is pending.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.autosave.Pending() {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.Save(ctx)
}

// AutoSavePending reports whether an auto-save is scheduled.
func (s *Store) AutoSavePending() bool {
	return s.autosave.Pending()
}

// Import replaces the persisted document with raw and reloads it. On a
// structural failure nothing changes and ErrInvalidDocument is returned.
// The write and the swap of in-memory state happen under one lock, so no
// concurrent mutation or auto-save can land between them.
func (s *Store) Import(ctx context.Context, raw []byte) error {
	doc, err := ParseDocument(raw)
	if err != nil {
		s.logger.ErrorContext(ctx, "error importing data", "err", err)
		return err
	}

	s.mu.Lock()
	if err := s.docs.Save(ctx, doc); err != nil {
		s.mu.Unlock()
		return err
	}
	s.autosave.Cancel()
	s.doc = s.docs.Load(ctx)
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snapshot, seq)
	return nil
}

// ExportJSON renders the in-memory document as formatted JSON.
func (s *Store) ExportJSON() ([]byte, error) {
	return EncodeDocument(s.Snapshot())
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// EntriesByType returns copies of the in-memory entries of one type.
func (s *Store) EntriesByType(contentType string) []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.doc.Entries[contentType]
	out := make([]*Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

// Entry returns a copy of one in-memory entry.
func (s *Store) Entry(contentType, id string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.indexOf(contentType, id)
	if i < 0 {
		return nil, false
	}
	return s.doc.Entries[contentType][i].Clone(), true
}

// EntryCounts maps every registered type id to its entry count.
func (s *Store) EntryCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.CountsByType(s.typeIDs())
}

// TotalEntryCount sums entries across all buckets.
func (s *Store) TotalEntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.TotalEntries()
}

// LastUpdated returns the time of the last successful persist.
func (s *Store) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.LastUpdated.Time
}

// Stats returns all derived views at once.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		EntryCounts: s.doc.CountsByType(s.typeIDs()),
		Total:       s.doc.TotalEntries(),
		LastUpdated: s.doc.LastUpdated,
	}
}

func (s *Store) typeIDs() []string {
	if s.registry == nil {
		return nil
	}
	return s.registry.IDs()
}

// persistLocked writes the in-memory document. Any pending auto-save is
// cancelled because this write already covers it.
func (s *Store) persistLocked(ctx context.Context) error {
	s.autosave.Cancel()
	return s.docs.Save(ctx, s.doc)
}

func (s *Store) autoSave() {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	s.mu.Lock()
	err := s.docs.Save(ctx, s.doc)
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	if err == nil {
		s.logger.DebugContext(ctx, "auto-saved content", "total", snapshot.TotalEntries())
	}
	s.publish(snapshot, seq)
	s.emitSaved(ctx, err, snapshot)
}

func (s *Store) emitSaved(ctx context.Context, saveErr error, snapshot *Document) {
	if saveErr != nil {
		return
	}
	s.emit(ctx, "document_saved", s.events.DocumentSaved(ctx, snapshot.LastUpdated.Time, snapshot.TotalEntries()))
}

func (s *Store) emit(ctx context.Context, event string, err error) {
	if err != nil {
		s.logger.WarnContext(ctx, "event sink failed", "event", event, "err", err)
	}
}
