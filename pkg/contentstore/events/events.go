// Package events publishes store lifecycle events to NATS.
package events

import (
	"time"

	"github.com/tendant/roastery-portal/pkg/contentstore"
)

// Subjects events are published on. Subscribers can use SubjectAll.
const (
	SubjectEntryCreated    = "portal.entry.created"
	SubjectEntryUpdated    = "portal.entry.updated"
	SubjectEntryDeleted    = "portal.entry.deleted"
	SubjectDocumentSaved   = "portal.document.saved"
	SubjectDocumentCleared = "portal.document.cleared"
	SubjectAll             = "portal.>"
)

// EntryEvent is the payload for created and updated entries.
type EntryEvent struct {
	Entry *contentstore.Entry `json:"entry"`
}

// EntryDeleted is the payload for a removed entry.
type EntryDeleted struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// DocumentSaved is the payload for a successful persist.
type DocumentSaved struct {
	LastUpdated time.Time `json:"lastUpdated"`
	Total       int       `json:"total"`
}

// DocumentCleared is the payload for a cleared store.
type DocumentCleared struct {
	ClearedAt time.Time `json:"clearedAt"`
}
