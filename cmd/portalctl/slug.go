package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tendant/roastery-portal/pkg/contentstore/schema"
)

func newSlugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <text>...",
		Short: "Print the URL slug for a title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), schema.GenerateSlug(strings.Join(args, " ")))
			return nil
		},
	}
}
