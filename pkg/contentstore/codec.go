package contentstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeDocument renders doc as two-space indented JSON, the export format.
func EncodeDocument(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// ParseDocument decodes an imported document. Only the presence of a
// non-empty version and an entries object is checked; entry data is not
// validated against any schema.
func ParseDocument(raw []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var version string
	if v, ok := fields["version"]; !ok || json.Unmarshal(v, &version) != nil || version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidDocument)
	}
	entries, ok := fields["entries"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(entries), []byte("{")) {
		return nil, fmt.Errorf("%w: missing entries", ErrInvalidDocument)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string][]*Entry)
	}
	return &doc, nil
}
