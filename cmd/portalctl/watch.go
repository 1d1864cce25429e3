package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/tendant/roastery-portal/pkg/contentstore/events"
)

func newWatchCmd(c *cli) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream content events from NATS until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.NATSURL == "" {
				return errors.New("no NATS server configured (set " + c.envPrefix + "NATS_URL)")
			}

			nc, err := nats.Connect(cfg.NATSURL, nats.Name("portalctl-watch"))
			if err != nil {
				return fmt.Errorf("connecting to NATS: %w", err)
			}
			defer nc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			msgs, err := events.Watch(ctx, nc, subject)
			if err != nil {
				return err
			}
			c.logger.Info("watching", "subject", subject, "url", cfg.NATSURL)

			out := cmd.OutOrStdout()
			for msg := range msgs {
				fmt.Fprintf(out, "%s %-24s %s\n", time.Now().Format(time.TimeOnly), msg.Subject, msg.Data)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", events.SubjectAll, "subject to subscribe to")
	return cmd
}
