// Package schema is the registry of portal content types and their field rules.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tendant/roastery-portal/pkg/contentstore"
)

// ContentType describes one category of entries.
type ContentType struct {
	ID          string             `json:"id"`
	Label       string             `json:"label"`
	Icon        string             `json:"icon"`
	Description string             `json:"description"`
	Schema      *jsonschema.Schema `json:"schema"`
	Defaults    map[string]any     `json:"defaults,omitempty"`

	resolved *jsonschema.Resolved
}

// ValidationError reports entry data that does not satisfy its type's schema.
type ValidationError struct {
	Type string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s data: %v", e.Type, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Registry holds content types in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	types map[string]*ContentType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*ContentType)}
}

// Register resolves the type's schema and adds it. Registering an existing
// id replaces it in place.
func (r *Registry) Register(ct ContentType) error {
	if ct.ID == "" {
		return fmt.Errorf("content type id is required")
	}
	if ct.Schema != nil {
		resolved, err := ct.Schema.Resolve(&jsonschema.ResolveOptions{})
		if err != nil {
			return fmt.Errorf("resolve schema for %s: %w", ct.ID, err)
		}
		ct.resolved = resolved
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[ct.ID]; !exists {
		r.order = append(r.order, ct.ID)
	}
	r.types[ct.ID] = &ct
	return nil
}

// MustRegister is Register for static tables.
func (r *Registry) MustRegister(ct ContentType) {
	if err := r.Register(ct); err != nil {
		panic(err)
	}
}

// IDs returns the registered type ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ContentType, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.types[id])
	}
	return out
}

// Lookup returns the type registered under id.
func (r *Registry) Lookup(id string) (ContentType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ct, ok := r.types[id]
	if !ok {
		return ContentType{}, false
	}
	return *ct, true
}

// Validate checks data against the schema of type id.
func (r *Registry) Validate(id string, data map[string]any) error {
	ct, ok := r.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", contentstore.ErrUnknownContentType, id)
	}
	if ct.resolved == nil {
		return nil
	}
	instance, err := normalize(data)
	if err != nil {
		return &ValidationError{Type: id, Err: err}
	}
	if err := ct.resolved.Validate(instance); err != nil {
		return &ValidationError{Type: id, Err: err}
	}
	return nil
}

// ApplyDefaults returns a copy of data with the type's defaults filled in
// for absent keys.
func (r *Registry) ApplyDefaults(id string, data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	ct, ok := r.Lookup(id)
	if !ok {
		return out
	}
	for k, v := range ct.Defaults {
		if _, present := out[k]; !present {
			out[k] = copyDefault(v)
		}
	}
	return out
}

// normalize converts data to plain JSON values so numeric Go types validate as numbers.
func normalize(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func copyDefault(v any) any {
	switch t := v.(type) {
	case []any:
		return append([]any{}, t...)
	case []string:
		return append([]string{}, t...)
	default:
		return v
	}
}
