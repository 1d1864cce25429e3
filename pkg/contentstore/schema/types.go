package schema

import "github.com/google/jsonschema-go/jsonschema"

// Content type ids known to the portal.
const (
	BrewingGuide   = "brewingGuide"
	MenuItemCoffee = "menuItemCoffee"
	MenuItemPastry = "menuItemPastry"
	Event          = "event"
	RetailCoffee   = "retailCoffee"
	BusinessInfo   = "businessInfo"
	MediaBranding  = "mediaBranding"
)

// Default returns a registry with every portal content type.
func Default() *Registry {
	r := NewRegistry()

	r.MustRegister(ContentType{
		ID:          BrewingGuide,
		Label:       "Brewing Guide",
		Icon:        "☕",
		Description: "Coffee brewing methods and instructions",
		Schema: object(
			[]string{"title", "slug", "difficulty", "heroImage", "description"},
			map[string]*jsonschema.Schema{
				"title":           text(1, 0),
				"slug":            text(1, 0),
				"difficulty":      oneOf("Einfach", "Mittel", "Fortgeschritten"),
				"brewTime":        text(0, 0),
				"heroImage":       text(1, 0),
				"description":     text(1, 200),
				"defaultServings": number(nil),
				"ingredients": list(object([]string{"amount", "ingredient"}, map[string]*jsonschema.Schema{
					"amount":     text(0, 0),
					"ingredient": text(0, 0),
				}), 0),
				"steps": list(object([]string{"time", "instruction"}, map[string]*jsonschema.Schema{
					"time":        text(0, 0),
					"instruction": text(0, 0),
				}), 0),
				"tips":    text(0, 500),
				"ogImage": text(0, 0),
			},
		),
		Defaults: map[string]any{
			"defaultServings": 2,
			"ingredients":     []any{},
			"steps":           []any{},
		},
	})

	r.MustRegister(ContentType{
		ID:          MenuItemCoffee,
		Label:       "Menu Item (Coffee)",
		Icon:        "☕",
		Description: "Coffee menu items with prices",
		Schema: object(
			[]string{"name", "price", "description", "image"},
			map[string]*jsonschema.Schema{
				"name":        text(1, 0),
				"price":       number(floatPtr(0)),
				"description": text(1, 150),
				"tag":         oneOf("Kurz", "Milch", "Filter", "Kalt", "Schwarz"),
				"image":       text(1, 0),
			},
		),
	})

	r.MustRegister(ContentType{
		ID:          MenuItemPastry,
		Label:       "Menu Item (Pastry)",
		Icon:        "🥐",
		Description: "Pastries and baked goods",
		Schema: object(
			[]string{"name", "price", "description", "image"},
			map[string]*jsonschema.Schema{
				"name":        text(1, 0),
				"price":       number(floatPtr(0)),
				"description": text(1, 150),
				"tag":         text(0, 0),
				"image":       text(1, 0),
				"allergens":   list(text(0, 0), 0),
			},
		),
		Defaults: map[string]any{
			"allergens": []any{},
		},
	})

	r.MustRegister(ContentType{
		ID:          Event,
		Label:       "Event / Workshop",
		Icon:        "📅",
		Description: "Events, workshops, and classes",
		Schema: object(
			[]string{"name", "date", "time", "description", "maxParticipants", "price", "level", "image"},
			map[string]*jsonschema.Schema{
				"name":            text(1, 0),
				"date":            text(1, 0),
				"time":            text(1, 0),
				"duration":        text(0, 0),
				"description":     text(1, 300),
				"maxParticipants": number(floatPtr(1)),
				"price":           number(floatPtr(0)),
				"level":           oneOf("Anfänger", "Fortgeschritten", "Alle Niveaus"),
				"image":           text(1, 0),
			},
		),
	})

	r.MustRegister(ContentType{
		ID:          RetailCoffee,
		Label:       "Retail Coffee",
		Icon:        "🌱",
		Description: "Retail coffee beans and products",
		Schema: object(
			[]string{"name", "slug", "origin", "price", "image", "description", "flavourProfile", "roastLevel"},
			map[string]*jsonschema.Schema{
				"name":             text(1, 0),
				"slug":             text(1, 0),
				"origin":           text(1, 0),
				"price":            text(1, 0),
				"pricePerKg":       text(0, 0),
				"image":            text(1, 0),
				"description":      text(1, 200),
				"flavourProfile":   list(text(0, 0), 1),
				"roastLevel":       oneOf("Light", "Medium", "Dark"),
				"flavourType":      oneOf("Fruity & lively", "Sweet & chocolaty", "Floral & light"),
				"acidity":          oneOf("Low", "Medium", "High"),
				"processingMethod": oneOf("Washed", "Natural", "Honey"),
				"category":         oneOf("Micro Lot", "Limited", "Exotic"),
				"producerStory":    text(0, 1000),
				"soldOut":          boolean(),
				"isNew":            boolean(),
			},
		),
		Defaults: map[string]any{
			"soldOut": false,
			"isNew":   false,
		},
	})

	email := text(1, 0)
	email.Pattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`
	r.MustRegister(ContentType{
		ID:          BusinessInfo,
		Label:       "Business Information",
		Icon:        "🏪",
		Description: "Contact details and opening hours",
		Schema: object(
			[]string{"street", "postalCode", "city", "email"},
			map[string]*jsonschema.Schema{
				"businessName": text(0, 0),
				"street":       text(1, 0),
				"postalCode":   text(1, 0),
				"city":         text(1, 0),
				"phone":        text(0, 0),
				"email":        email,
				"openingHours": list(object([]string{"day", "hours"}, map[string]*jsonschema.Schema{
					"day":   oneOf("Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"),
					"hours": text(0, 0),
				}), 0),
				"instagram": text(0, 0),
				"facebook":  text(0, 0),
				"aboutText": text(0, 500),
			},
		),
		Defaults: map[string]any{
			"businessName": "Hellers Kaffees",
			"openingHours": []any{},
		},
	})

	r.MustRegister(ContentType{
		ID:          MediaBranding,
		Label:       "Media & Branding",
		Icon:        "🎨",
		Description: "Brand assets and images",
		Schema: object(
			[]string{"type", "file"},
			map[string]*jsonschema.Schema{
				"type":    oneOf("Hero Image", "Logo", "Favicon", "OG Image"),
				"purpose": text(0, 0),
				"file":    text(1, 0),
				"altText": text(0, 0),
			},
		),
	})

	return r
}

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Required:   required,
		Properties: props,
	}
}

func text(minLen, maxLen int) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "string"}
	if minLen > 0 {
		s.MinLength = intPtr(minLen)
	}
	if maxLen > 0 {
		s.MaxLength = intPtr(maxLen)
	}
	return s
}

func number(minimum *float64) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Minimum: minimum}
}

func boolean() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean"}
}

func oneOf(values ...string) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

func list(items *jsonschema.Schema, minItems int) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "array", Items: items}
	if minItems > 0 {
		s.MinItems = intPtr(minItems)
	}
	return s
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
