package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/roastery-portal/pkg/contentstore"
)

var _ contentstore.EventSink = (*Sink)(nil)

func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Shutdown)
	require.True(t, srv.ReadyForConnections(5*time.Second), "embedded NATS not ready")
	return srv.ClientURL()
}

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Message{}
	}
}

func TestSink_PublishesLifecycle(t *testing.T) {
	url := startTestNATS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, err := Connect(url)
	require.NoError(t, err)
	defer sink.Close()

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	ch, err := Watch(ctx, nc, SubjectAll)
	require.NoError(t, err)

	entry := &contentstore.Entry{ID: "e1", Type: "event", Data: map[string]any{"name": "Cupping"}}
	saved := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sink.EntryCreated(ctx, entry))
	require.NoError(t, sink.EntryUpdated(ctx, entry))
	require.NoError(t, sink.EntryDeleted(ctx, "event", "e1"))
	require.NoError(t, sink.DocumentSaved(ctx, saved, 3))
	require.NoError(t, sink.DocumentCleared(ctx))
	require.NoError(t, sink.Flush())

	msg := receive(t, ch)
	assert.Equal(t, SubjectEntryCreated, msg.Subject)
	var created EntryEvent
	require.NoError(t, json.Unmarshal(msg.Data, &created))
	assert.Equal(t, "e1", created.Entry.ID)
	assert.Equal(t, "Cupping", created.Entry.Data["name"])

	assert.Equal(t, SubjectEntryUpdated, receive(t, ch).Subject)

	msg = receive(t, ch)
	assert.Equal(t, SubjectEntryDeleted, msg.Subject)
	var deleted EntryDeleted
	require.NoError(t, json.Unmarshal(msg.Data, &deleted))
	assert.Equal(t, EntryDeleted{Type: "event", ID: "e1"}, deleted)

	msg = receive(t, ch)
	assert.Equal(t, SubjectDocumentSaved, msg.Subject)
	var savedEvent DocumentSaved
	require.NoError(t, json.Unmarshal(msg.Data, &savedEvent))
	assert.Equal(t, 3, savedEvent.Total)
	assert.True(t, saved.Equal(savedEvent.LastUpdated))

	assert.Equal(t, SubjectDocumentCleared, receive(t, ch).Subject)
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	url := startTestNATS(t)
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Watch(ctx, nc, SubjectAll)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel not closed")
	}
}

func TestNewSink_DoesNotCloseSharedConn(t *testing.T) {
	url := startTestNATS(t)
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	sink := NewSink(nc)
	require.NoError(t, sink.Close())
	assert.True(t, nc.IsConnected())
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", nats.Timeout(200*time.Millisecond), nats.MaxReconnects(0))
	assert.Error(t, err)
}
