package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title>",
		Short: "Look a title up and add it to the collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.waitForSnapshot(ctx, 5*time.Second); err != nil {
				return err
			}

			result, err := a.gateway.Enrich(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to add title: %w", err)
			}

			out := cmd.OutOrStdout()
			r := result.Record
			fmt.Fprintf(out, "Added %s (%s, %.1f) as %s [%s]\n", r.Title, r.MediaKind, r.Rating, r.Status, r.ID)
			for _, s := range result.Similar {
				fmt.Fprintf(out, "Note: similar title already tracked: %s [%s]\n", s.Title, s.ID)
			}
			return nil
		},
	}
}
