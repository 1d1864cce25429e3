package contentstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tendant/roastery-portal/pkg/contentstore"
	"github.com/tendant/roastery-portal/pkg/contentstore/clocktest"
	"github.com/tendant/roastery-portal/pkg/contentstore/storage/memory"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var testTypes = staticTypes{"brewingGuide", "menuItemCoffee", "event"}

type staticTypes []string

func (s staticTypes) IDs() []string { return append([]string(nil), s...) }

// countingBlobs wraps a BlobStore and records every write.
type countingBlobs struct {
	contentstore.BlobStore

	mu       sync.Mutex
	puts     int
	deletes  int
	failPut  error
	afterPut func()
}

func (c *countingBlobs) Put(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	fail := c.failPut
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	if err := c.BlobStore.Put(ctx, key, value); err != nil {
		return err
	}
	c.mu.Lock()
	c.puts++
	hook := c.afterPut
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (c *countingBlobs) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	return c.BlobStore.Delete(ctx, key)
}

func (c *countingBlobs) Puts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

// setAfterPut installs fn to run after every successful write.
func (c *countingBlobs) setAfterPut(fn func()) {
	c.mu.Lock()
	c.afterPut = fn
	c.mu.Unlock()
}

func (c *countingBlobs) setFailure(err error) {
	c.mu.Lock()
	c.failPut = err
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []contentstore.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, note contentstore.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
}

func (r *recordingNotifier) All() []contentstore.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]contentstore.Notification(nil), r.notes...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (r *recordingSink) record(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
	if r.fail {
		return errors.New("sink unavailable")
	}
	return nil
}

func (r *recordingSink) EntryCreated(ctx context.Context, e *contentstore.Entry) error {
	return r.record("created:" + e.Type)
}

func (r *recordingSink) EntryUpdated(ctx context.Context, e *contentstore.Entry) error {
	return r.record("updated:" + e.Type)
}

func (r *recordingSink) EntryDeleted(ctx context.Context, contentType, id string) error {
	return r.record("deleted:" + contentType)
}

func (r *recordingSink) DocumentSaved(ctx context.Context, lastUpdated time.Time, total int) error {
	return r.record("saved")
}

func (r *recordingSink) DocumentCleared(ctx context.Context) error {
	return r.record("cleared")
}

func (r *recordingSink) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fixture struct {
	clock    *clocktest.Clock
	blobs    *countingBlobs
	notifier *recordingNotifier
	docs     *contentstore.Documents
}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	clock := clocktest.New(epoch)
	blobs := &countingBlobs{BlobStore: memory.New(opts...)}
	notifier := &recordingNotifier{}
	docs := contentstore.NewDocuments(blobs, contentstore.DocumentsConfig{
		Clock:    clock,
		Notifier: notifier,
	})
	return &fixture{clock: clock, blobs: blobs, notifier: notifier, docs: docs}
}

func (f *fixture) store(opts ...contentstore.Option) *contentstore.Store {
	opts = append([]contentstore.Option{contentstore.WithClock(f.clock)}, opts...)
	return contentstore.New(f.docs, testTypes, opts...)
}
