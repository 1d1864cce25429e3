package contentstore

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

const (
	// StorageVersion is the format tag written into every persisted document.
	// A persisted document carrying any other tag is discarded on load.
	StorageVersion = "1.0"

	// DefaultStorageKey is the fixed key the document is stored under.
	DefaultStorageKey = "hellers_portal_content"

	// DefaultAutoSaveDelay is the coalescing delay applied after UpdateEntry.
	DefaultAutoSaveDelay = 30 * time.Second
)

// timestampLayout matches the ISO-8601 form browsers emit (millisecond precision, UTC).
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a time.Time that marshals with millisecond precision in UTC.
// Values that do not parse on decode are kept verbatim and written back unchanged.
type Timestamp struct {
	time.Time
	raw string
}

// NewTimestamp truncates t to milliseconds and converts it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// timestampLayouts are tried in order when decoding.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() && t.raw != "" {
		return json.Marshal(t.raw)
	}
	return json.Marshal(t.UTC().Format(timestampLayout))
}

// UnmarshalJSON never fails. Strings are parsed with timestampLayouts,
// numbers are read as Unix milliseconds, and anything else yields the zero time.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "" {
			return nil
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		t.raw = s
		return nil
	}

	var ms float64
	if err := json.Unmarshal(b, &ms); err == nil {
		t.Time = time.UnixMilli(int64(ms)).UTC()
	}
	return nil
}

// Entry is one record of user-authored content.
type Entry struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	CreatedAt Timestamp      `json:"createdAt"`
	UpdatedAt Timestamp      `json:"updatedAt"`
	Data      map[string]any `json:"data"`
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	c.Data = cloneMap(e.Data)
	return &c
}

// Document is the single persisted unit. Entries maps a content type id to
// its entries in insertion order.
type Document struct {
	Version     string              `json:"version"`
	LastUpdated Timestamp           `json:"lastUpdated"`
	Entries     map[string][]*Entry `json:"entries"`
}

// UnmarshalJSON decodes an entry field by field. A non-string id or type
// keeps its JSON text, and data that is not an object becomes empty.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*e = Entry{
		ID:   looseString(fields["id"]),
		Type: looseString(fields["type"]),
	}
	_ = e.CreatedAt.UnmarshalJSON(fields["createdAt"])
	_ = e.UpdatedAt.UnmarshalJSON(fields["updatedAt"])
	if json.Unmarshal(fields["data"], &e.Data) != nil || e.Data == nil {
		e.Data = map[string]any{}
	}
	return nil
}

// UnmarshalJSON decodes a document, skipping buckets that are not arrays and
// elements that are not entry objects, null included. Only malformed JSON or a non-object
// top level is an error.
func (d *Document) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*d = Document{
		Version: looseString(fields["version"]),
		Entries: make(map[string][]*Entry),
	}
	_ = d.LastUpdated.UnmarshalJSON(fields["lastUpdated"])

	var buckets map[string]json.RawMessage
	if json.Unmarshal(fields["entries"], &buckets) != nil {
		return nil
	}
	for typ, raw := range buckets {
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) != nil {
			continue
		}
		entries := make([]*Entry, 0, len(items))
		for _, item := range items {
			if !bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
				continue
			}
			var e Entry
			if json.Unmarshal(item, &e) != nil {
				continue
			}
			entries = append(entries, &e)
		}
		d.Entries[typ] = entries
	}
	return nil
}

// looseString returns a JSON string's value, or the raw JSON text of any other
// scalar. null and absent values give "".
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := string(bytes.TrimSpace(raw))
	if text == "null" || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return ""
	}
	return text
}

// NewDocument returns an empty document of the current storage version.
func NewDocument(now time.Time) *Document {
	return &Document{
		Version:     StorageVersion,
		LastUpdated: NewTimestamp(now),
		Entries:     make(map[string][]*Entry),
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{
		Version:     d.Version,
		LastUpdated: d.LastUpdated,
		Entries:     make(map[string][]*Entry, len(d.Entries)),
	}
	for typ, entries := range d.Entries {
		copied := make([]*Entry, len(entries))
		for i, e := range entries {
			copied[i] = e.Clone()
		}
		c.Entries[typ] = copied
	}
	return c
}

// CountsByType returns the number of entries for each of the given type ids.
// Types with no bucket count as zero.
func (d *Document) CountsByType(typeIDs []string) map[string]int {
	counts := make(map[string]int, len(typeIDs))
	for _, id := range typeIDs {
		counts[id] = len(d.Entries[id])
	}
	return counts
}

// TotalEntries sums the entry count across all buckets.
func (d *Document) TotalEntries() int {
	total := 0
	for _, entries := range d.Entries {
		total += len(entries)
	}
	return total
}

// indexOf returns the position of id in the bucket for typ, or -1.
func (d *Document) indexOf(typ, id string) int {
	for i, e := range d.Entries[typ] {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Stats bundles the derived aggregate views of a document.
type Stats struct {
	EntryCounts map[string]int `json:"entryCounts"`
	Total       int            `json:"total"`
	LastUpdated Timestamp      `json:"lastUpdated"`
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
