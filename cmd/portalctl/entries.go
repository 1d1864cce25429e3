package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tendant/roastery-portal/pkg/contentstore"
	"github.com/tendant/roastery-portal/pkg/contentstore/schema"
)

func (c *cli) requireType(typ string) error {
	if _, ok := c.registry.Lookup(typ); !ok {
		return fmt.Errorf("%w: %s (see 'portalctl types')", contentstore.ErrUnknownContentType, typ)
	}
	return nil
}

// readData merges --file, --data and --set inputs, later sources winning.
func readData(cmd *cobra.Command) (map[string]any, error) {
	data := map[string]any{}

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
	}
	if inline, _ := cmd.Flags().GetString("data"); inline != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(inline), &parsed); err != nil {
			return nil, fmt.Errorf("invalid --data JSON: %w", err)
		}
		for k, v := range parsed {
			data[k] = v
		}
	}
	sets, _ := cmd.Flags().GetStringArray("set")
	assigned, err := parseAssignments(sets)
	if err != nil {
		return nil, err
	}
	for k, v := range assigned {
		data[k] = v
	}
	return data, nil
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().String("data", "", "entry data as a JSON object")
	cmd.Flags().String("file", "", "read entry data from a JSON file")
	cmd.Flags().StringArray("set", nil, "set a single field, key=value (repeatable)")
}

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "list <type>",
		Short:   "List entries of a content type",
		GroupID: "entries",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireType(args[0]); err != nil {
				return err
			}
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			entries := store.EntriesByType(args[0])
			out := cmd.OutOrStdout()
			if c.jsonOutput {
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries.")
				return nil
			}
			w := newTable(out)
			fmt.Fprintln(w, "ID\tUPDATED\tSUMMARY")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.UpdatedAt.Format("2006-01-02 15:04"), summary(e))
			}
			return w.Flush()
		},
	}
}

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "show <type> <id>",
		Short:   "Show one entry",
		GroupID: "entries",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			entry, ok := store.Entry(args[0], args[1])
			if !ok {
				return fmt.Errorf("entry %s/%s not found", args[0], args[1])
			}
			return writeJSON(cmd.OutOrStdout(), entry)
		},
	}
}

func newCreateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create <type>",
		Short:   "Create an entry",
		GroupID: "entries",
		Args:    cobra.ExactArgs(1),
		Example: `  portalctl create menuItemCoffee --set name=Espresso --set price=2.5 \
    --set description="Kurz und kräftig" --set image=/img/espresso.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := args[0]
			if err := c.requireType(typ); err != nil {
				return err
			}
			data, err := readData(cmd)
			if err != nil {
				return err
			}
			data = c.registry.ApplyDefaults(typ, data)
			fillSlug(c.registry, typ, data)
			if err := c.registry.Validate(typ, data); err != nil {
				return err
			}

			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			entry, err := store.CreateEntry(cmd.Context(), typ, data)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), entry)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", typ, entry.ID)
			return nil
		},
	}
	addDataFlags(cmd)
	return cmd
}

// fillSlug derives a missing slug from the title or name for types that have one.
func fillSlug(registry *schema.Registry, typ string, data map[string]any) {
	ct, ok := registry.Lookup(typ)
	if !ok || ct.Schema == nil {
		return
	}
	if _, hasSlug := ct.Schema.Properties["slug"]; !hasSlug {
		return
	}
	if s, _ := data["slug"].(string); s != "" {
		return
	}
	for _, field := range []string{"title", "name"} {
		if v, ok := data[field].(string); ok && v != "" {
			data["slug"] = schema.GenerateSlug(v)
			return
		}
	}
}

func newUpdateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "update <type> <id>",
		Short:   "Merge fields into an entry",
		GroupID: "entries",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, id := args[0], args[1]
			partial, err := readData(cmd)
			if err != nil {
				return err
			}
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}

			existing, ok := store.Entry(typ, id)
			if !ok {
				c.logger.Warn("entry not found, nothing changed", "type", typ, "id", id)
				return nil
			}
			merged := existing.Data
			if merged == nil {
				merged = map[string]any{}
			}
			for k, v := range partial {
				merged[k] = v
			}
			if err := c.registry.Validate(typ, merged); err != nil {
				return err
			}

			store.UpdateEntry(typ, id, partial)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", typ, id)
			return nil
		},
	}
	addDataFlags(cmd)
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <type> <id>...",
		Short:   "Delete one or more entries",
		GroupID: "entries",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			typ := args[0]
			for _, id := range args[1:] {
				if _, ok := store.Entry(typ, id); !ok {
					c.logger.Warn("entry not found", "type", typ, "id", id)
					continue
				}
				store.DeleteEntry(cmd.Context(), typ, id)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", typ, id)
			}
			return nil
		},
	}
}
