package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/roastery-portal/pkg/contentstore"
	"github.com/tendant/roastery-portal/pkg/contentstore/storage/memory"
)

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() > 0 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestHub_SnapshotsAndNotifications(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(nil)
	defer hub.Close()

	docs := contentstore.NewDocuments(memory.New(memory.WithCapacity(150)), contentstore.DocumentsConfig{Notifier: hub})
	store := contentstore.New(docs, nil)
	unsubscribe := store.Subscribe(hub.PublishDocument)
	defer unsubscribe()

	conn := dial(t, hub)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, msg.Type, "latest snapshot is sent on connect")

	_, err := store.CreateEntry(ctx, "event", map[string]any{"description": strings.Repeat("x", 200)})
	require.NoError(t, err)

	note := readMessage(t, conn)
	require.Equal(t, MessageNotification, note.Type)
	var payload contentstore.Notification
	require.NoError(t, json.Unmarshal(note.Payload, &payload))
	assert.Equal(t, contentstore.QuotaExceededMessage, payload.Message)
	assert.True(t, payload.Blocking)

	snap := readMessage(t, conn)
	require.Equal(t, MessageSnapshot, snap.Type)
	var doc contentstore.Document
	require.NoError(t, json.Unmarshal(snap.Payload, &doc))
	assert.Len(t, doc.Entries["event"], 1)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(nil)
	conn := dial(t, hub)

	hub.Close()
	assert.Zero(t, hub.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	conn := dial(t, hub)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
