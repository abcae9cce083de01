package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mstasiak/ocusage/internal/config"
	"github.com/mstasiak/ocusage/internal/opencode"
)

type usageWindow int

const (
	windowAll usageWindow = iota
	windowToday
	windowMonth
	windowLastMonth
)

func newTodayCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show usage aggregated from files modified today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsage(cmd, cfg, windowToday)
		},
	}
}

func newMonthCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show usage for the current calendar month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsage(cmd, cfg, windowMonth)
		},
	}
}

func newLastMonthCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "last-month",
		Short: "Show usage for the previous calendar month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsage(cmd, cfg, windowLastMonth)
		},
	}
}

func newReader(cfg config.Config) (*opencode.Reader, error) {
	root := cfg.StoragePath
	if root == "" {
		root = opencode.DefaultStorageRoot()
	}
	scanner, err := opencode.NewScanner(root)
	if err != nil {
		return nil, err
	}
	return opencode.NewReaderTTL(scanner, time.Duration(cfg.CacheTTLSeconds)*time.Second), nil
}

func runUsage(cmd *cobra.Command, cfg config.Config, window usageWindow) error {
	reader, err := newReader(cfg)
	if err != nil {
		return err
	}

	var metrics opencode.Metrics
	switch window {
	case windowToday:
		metrics, err = reader.UsageToday()
	case windowMonth:
		metrics, err = reader.UsageMonth()
	case windowLastMonth:
		metrics, err = reader.UsageLastMonth()
	default:
		metrics, err = reader.Usage()
	}
	if err != nil {
		return err
	}

	printMetrics(cmd, metrics)
	return nil
}

func printMetrics(cmd *cobra.Command, m opencode.Metrics) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Input tokens:       %d\n", m.TotalInputTokens)
	fmt.Fprintf(out, "Output tokens:      %d\n", m.TotalOutputTokens)
	fmt.Fprintf(out, "Reasoning tokens:   %d\n", m.TotalReasoningTokens)
	fmt.Fprintf(out, "Cache write tokens: %d\n", m.TotalCacheWriteTokens)
	fmt.Fprintf(out, "Cache read tokens:  %d\n", m.TotalCacheReadTokens)
	fmt.Fprintf(out, "Interactions:       %d\n", m.TotalInteractions)
	fmt.Fprintf(out, "Total cost:         $%.4f\n", m.TotalCost)
}
