package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendant/roastery-portal/pkg/contentstore"
	"github.com/tendant/roastery-portal/pkg/contentstore/export"
)

func newTypesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "types",
		Short:   "List content types and their entry counts",
		GroupID: "entries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			counts := store.EntryCounts()
			out := cmd.OutOrStdout()
			if c.jsonOutput {
				return writeJSON(out, counts)
			}
			w := newTable(out)
			fmt.Fprintln(w, "TYPE\tLABEL\tENTRIES")
			for _, ct := range c.registry.Types() {
				fmt.Fprintf(w, "%s\t%s %s\t%d\n", ct.ID, ct.Icon, ct.Label, counts[ct.ID])
			}
			return w.Flush()
		},
	}
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Short:   "Show totals and the last save time",
		GroupID: "data",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			stats := store.Stats()
			out := cmd.OutOrStdout()
			if c.jsonOutput {
				return writeJSON(out, stats)
			}
			fmt.Fprintf(out, "Entries:      %d\n", stats.Total)
			fmt.Fprintf(out, "Last updated: %s\n", stats.LastUpdated.Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export content as JSON or CSV",
		GroupID: "data",
	}

	var jsonOut string
	jsonCmd := &cobra.Command{
		Use:   "json",
		Short: "Export the whole document as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			data, err := export.JSON(store.Snapshot())
			if err != nil {
				return err
			}
			if jsonOut == "" {
				jsonOut = export.JSONFileName(time.Now())
			}
			return writeOutput(cmd.OutOrStdout(), jsonOut, data)
		},
	}
	jsonCmd.Flags().StringVarP(&jsonOut, "out", "o", "", "output file, '-' for stdout (default hellers-content-<date>.json)")

	var csvOut string
	csvCmd := &cobra.Command{
		Use:   "csv <type>",
		Short: "Export one content type as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := args[0]
			if err := c.requireType(typ); err != nil {
				return err
			}
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			text, err := export.CSV(store.EntriesByType(typ))
			if errors.Is(err, contentstore.ErrNoEntries) {
				fmt.Fprintln(cmd.ErrOrStderr(), export.NoEntriesMessage)
				return nil
			}
			if err != nil {
				return err
			}
			if csvOut == "" {
				csvOut = export.CSVFileName(typ, time.Now())
			}
			return writeOutput(cmd.OutOrStdout(), csvOut, []byte(text))
		},
	}
	csvCmd.Flags().StringVarP(&csvOut, "out", "o", "", "output file, '-' for stdout (default <type>-<date>.csv)")

	cmd.AddCommand(jsonCmd, csvCmd)
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s (%d bytes)\n", path, len(data))
	return nil
}

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "import <file>",
		Short:   "Replace all content with a JSON export",
		GroupID: "data",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Import(cmd.Context(), raw); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries\n", store.TotalEntryCount())
			return nil
		},
	}
}

func newClearCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "clear",
		Short:   "Delete all content",
		GroupID: "data",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear all content without --yes")
			}
			store, err := c.store(cmd.Context())
			if err != nil {
				return err
			}
			store.Clear(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "All content cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting everything")
	return cmd
}
