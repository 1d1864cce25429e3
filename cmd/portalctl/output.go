package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/tendant/roastery-portal/pkg/contentstore"
	"github.com/tendant/roastery-portal/pkg/contentstore/schema"
)

// summaryFields are tried in order to label an entry in listings.
var summaryFields = []string{"title", "name", "businessName", "type"}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func summary(e *contentstore.Entry) string {
	for _, field := range summaryFields {
		if v, ok := e.Data[field].(string); ok && v != "" {
			return schema.Truncate(v, 40)
		}
	}
	return "-"
}

// parseAssignments turns key=value pairs into data. Values that parse as
// JSON keep their JSON type; anything else is a string.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}
