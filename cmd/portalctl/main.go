package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tendant/roastery-portal/pkg/contentstore"
	"github.com/tendant/roastery-portal/pkg/contentstore/config"
	"github.com/tendant/roastery-portal/pkg/contentstore/schema"
)

// cli carries state shared by all subcommands of one invocation.
type cli struct {
	envPrefix  string
	jsonOutput bool
	verbose    bool

	registry *schema.Registry
	logger   *slog.Logger
	cfg      *config.Config
	rt       *config.Runtime
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	}))
}

// config loads settings from the environment once.
func (c *cli) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(config.WithEnv(c.envPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

// store opens the configured store on first use.
func (c *cli) store(ctx context.Context) (*contentstore.Store, error) {
	if c.rt != nil {
		return c.rt.Store, nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	rt, err := cfg.BuildStore(ctx, c.registry, contentstore.NewLogNotifier(c.logger), c.logger)
	if err != nil {
		return nil, err
	}
	c.rt = rt
	return rt.Store, nil
}

// finish writes any pending edits and releases the backend.
func (c *cli) finish(ctx context.Context) error {
	if c.rt == nil {
		return nil
	}
	flushErr := c.rt.Store.Flush(ctx)
	closeErr := c.rt.Close()
	c.rt = nil
	return errors.Join(flushErr, closeErr)
}

func newRootCmd() *cobra.Command {
	c := &cli{registry: schema.Default()}

	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Manage roastery portal content from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.logger = newLogger(c.verbose)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.finish(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&c.envPrefix, "env-prefix", "PORTAL_", "prefix for configuration environment variables")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddGroup(
		&cobra.Group{ID: "entries", Title: "Entry Commands:"},
		&cobra.Group{ID: "data", Title: "Data Commands:"},
	)

	root.AddCommand(
		newTypesCmd(c),
		newListCmd(c),
		newShowCmd(c),
		newCreateCmd(c),
		newUpdateCmd(c),
		newDeleteCmd(c),
		newStatsCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newClearCmd(c),
		newSlugCmd(),
		newWatchCmd(c),
	)
	return root
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
