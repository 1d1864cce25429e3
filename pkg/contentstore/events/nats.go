package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tendant/roastery-portal/pkg/contentstore"
)

// Sink implements contentstore.EventSink by publishing JSON to NATS.
type Sink struct {
	conn  *nats.Conn
	now   func() time.Time
	owned bool
}

// Connect dials url and returns a Sink that owns the connection.
func Connect(url string, opts ...nats.Option) (*Sink, error) {
	defaults := []nats.Option{
		nats.Name("roastery-portal"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &Sink{conn: nc, now: time.Now, owned: true}, nil
}

// NewSink wraps an existing connection. Close leaves it open.
func NewSink(nc *nats.Conn) *Sink {
	return &Sink{conn: nc, now: time.Now}
}

func (s *Sink) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return s.conn.Publish(subject, data)
}

func (s *Sink) EntryCreated(ctx context.Context, entry *contentstore.Entry) error {
	return s.publish(SubjectEntryCreated, EntryEvent{Entry: entry})
}

func (s *Sink) EntryUpdated(ctx context.Context, entry *contentstore.Entry) error {
	return s.publish(SubjectEntryUpdated, EntryEvent{Entry: entry})
}

func (s *Sink) EntryDeleted(ctx context.Context, contentType, id string) error {
	return s.publish(SubjectEntryDeleted, EntryDeleted{Type: contentType, ID: id})
}

func (s *Sink) DocumentSaved(ctx context.Context, lastUpdated time.Time, total int) error {
	return s.publish(SubjectDocumentSaved, DocumentSaved{LastUpdated: lastUpdated, Total: total})
}

func (s *Sink) DocumentCleared(ctx context.Context) error {
	return s.publish(SubjectDocumentCleared, DocumentCleared{ClearedAt: s.now().UTC()})
}

// Flush waits until the server has processed everything published so far.
func (s *Sink) Flush() error {
	return s.conn.Flush()
}

// Close drains the connection if the Sink dialed it.
func (s *Sink) Close() error {
	if !s.owned {
		return nil
	}
	return s.conn.Drain()
}

// Message is one event received by a Watcher.
type Message struct {
	Subject string
	Data    []byte
}

// Watch subscribes to subject (wildcards allowed) and delivers messages on
// the returned channel until ctx is done. Slow consumers drop messages
// rather than block the NATS client.
func Watch(ctx context.Context, nc *nats.Conn, subject string) (<-chan Message, error) {
	ch := make(chan Message, 64)
	var (
		mu     sync.Mutex
		closed bool
	)

	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- Message{Subject: msg.Subject, Data: msg.Data}:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch, nil
}
