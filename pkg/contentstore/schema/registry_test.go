package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/roastery-portal/pkg/contentstore"
)

func TestDefault_Types(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{
		BrewingGuide, MenuItemCoffee, MenuItemPastry, Event, RetailCoffee, BusinessInfo, MediaBranding,
	}, r.IDs())

	for _, ct := range r.Types() {
		assert.NotEmpty(t, ct.Label, ct.ID)
		assert.NotNil(t, ct.Schema, ct.ID)
	}
}

func TestValidate(t *testing.T) {
	r := Default()

	tests := []struct {
		name    string
		typ     string
		data    map[string]any
		wantErr bool
	}{
		{
			name: "valid coffee",
			typ:  MenuItemCoffee,
			data: map[string]any{"name": "Espresso", "price": 2.5, "description": "Kurz und kräftig", "image": "espresso.jpg", "tag": "Kurz"},
		},
		{
			name:    "coffee missing price",
			typ:     MenuItemCoffee,
			data:    map[string]any{"name": "Espresso", "description": "Kurz", "image": "espresso.jpg"},
			wantErr: true,
		},
		{
			name:    "coffee negative price",
			typ:     MenuItemCoffee,
			data:    map[string]any{"name": "Espresso", "price": -1, "description": "Kurz", "image": "espresso.jpg"},
			wantErr: true,
		},
		{
			name:    "coffee unknown tag",
			typ:     MenuItemCoffee,
			data:    map[string]any{"name": "Espresso", "price": 2, "description": "Kurz", "image": "e.jpg", "tag": "Heiß"},
			wantErr: true,
		},
		{
			name: "valid event with integer fields",
			typ:  Event,
			data: map[string]any{
				"name": "Cupping", "date": "2026-06-01", "time": "18:00", "description": "Verkostung",
				"maxParticipants": 12, "price": 15, "level": "Alle Niveaus", "image": "cupping.jpg",
			},
		},
		{
			name: "event with zero participants",
			typ:  Event,
			data: map[string]any{
				"name": "Cupping", "date": "2026-06-01", "time": "18:00", "description": "Verkostung",
				"maxParticipants": 0, "price": 15, "level": "Alle Niveaus", "image": "cupping.jpg",
			},
			wantErr: true,
		},
		{
			name: "retail coffee needs a flavour",
			typ:  RetailCoffee,
			data: map[string]any{
				"name": "Kenia", "slug": "kenia", "origin": "Kenia", "price": "12,90 €", "image": "k.jpg",
				"description": "Fruchtig", "flavourProfile": []any{}, "roastLevel": "Light",
			},
			wantErr: true,
		},
		{
			name:    "business email pattern",
			typ:     BusinessInfo,
			data:    map[string]any{"street": "Hauptstr. 1", "postalCode": "10115", "city": "Berlin", "email": "not-an-email"},
			wantErr: true,
		},
		{
			name: "brewing guide description too long",
			typ:  BrewingGuide,
			data: map[string]any{
				"title": "V60", "slug": "v60", "difficulty": "Mittel", "heroImage": "v60.jpg",
				"description": string(make([]byte, 201)),
			},
			wantErr: true,
		},
		{
			name: "valid media",
			typ:  MediaBranding,
			data: map[string]any{"type": "Logo", "file": "logo.svg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.typ, tt.data)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.typ, verr.Type)
		})
	}
}

func TestValidate_UnknownType(t *testing.T) {
	err := Default().Validate("newsletter", map[string]any{})
	assert.True(t, errors.Is(err, contentstore.ErrUnknownContentType))
}

func TestApplyDefaults(t *testing.T) {
	r := Default()

	got := r.ApplyDefaults(RetailCoffee, map[string]any{"name": "Kenia", "soldOut": true})
	assert.Equal(t, true, got["soldOut"])
	assert.Equal(t, false, got["isNew"])
	assert.Equal(t, "Kenia", got["name"])

	guide := r.ApplyDefaults(BrewingGuide, nil)
	assert.Equal(t, 2, guide["defaultServings"])
	assert.Equal(t, []any{}, guide["steps"])

	info := r.ApplyDefaults(BusinessInfo, map[string]any{})
	assert.Equal(t, "Hellers Kaffees", info["businessName"])

	unknown := r.ApplyDefaults("newsletter", map[string]any{"a": 1})
	assert.Equal(t, map[string]any{"a": 1}, unknown)
}

func TestApplyDefaults_DoesNotShareSlices(t *testing.T) {
	r := Default()
	first := r.ApplyDefaults(MenuItemPastry, nil)
	first["allergens"] = append(first["allergens"].([]any), "Gluten")

	second := r.ApplyDefaults(MenuItemPastry, nil)
	assert.Empty(t, second["allergens"])
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(ContentType{ID: "a", Label: "A"}))
	require.NoError(t, r.Register(ContentType{ID: "b", Label: "B"}))
	require.NoError(t, r.Register(ContentType{ID: "a", Label: "A2"}))

	assert.Equal(t, []string{"a", "b"}, r.IDs())
	ct, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "A2", ct.Label)
	assert.NoError(t, r.Validate("a", map[string]any{"anything": true}))

	assert.Error(t, r.Register(ContentType{}))
}
