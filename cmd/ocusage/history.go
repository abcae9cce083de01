package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mstasiak/ocusage/internal/config"
	"github.com/mstasiak/ocusage/internal/history"
)

func openRepository(cfg config.Config) (*history.Repository, *history.Store, error) {
	path := cfg.DatabasePath
	if path == "" {
		path = history.DefaultDBPath()
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return history.NewRepository(store), store, nil
}

func newHistoryCommand(cfg config.Config) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show persisted daily snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, store, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			end := time.Now().UTC()
			start := end.AddDate(0, 0, -days)

			snapshots, err := repo.GetRange(ctx, start, end)
			if err != nil {
				return err
			}
			if len(snapshots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots recorded.")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %12s %12s %14s %8s\n", "DATE", "INPUT", "OUTPUT", "INTERACTIONS", "COST")
			for _, s := range snapshots {
				fmt.Fprintf(out, "%-12s %12d %12d %14d %8.4f\n",
					s.Date.Format("2006-01-02"),
					s.InputTokens, s.OutputTokens, s.InteractionCount, s.TotalCost)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "how many days back to list")
	return cmd
}

func newCollectCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Aggregate current usage and persist today's snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader, err := newReader(cfg)
			if err != nil {
				return err
			}
			metrics, err := reader.Usage()
			if err != nil {
				return err
			}

			repo, store, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			saved, err := history.NewCollector(repo).CollectAndSave(context.Background(), metrics)
			if err != nil {
				return err
			}
			if saved {
				fmt.Fprintln(cmd.OutOrStdout(), "Snapshot saved.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Already collected today.")
			}
			return nil
		},
	}
}

func newPruneCommand(cfg config.Config) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshots older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, store, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			retention := keep
			if retention <= 0 {
				retention = cfg.RetentionDays
			}

			deleted, err := repo.DeleteOld(context.Background(), retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d snapshot(s) older than %d days.\n", deleted, retention)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "retention in days (defaults to retention_days from settings)")
	return cmd
}
