package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mstasiak/ocusage/internal/config"
	"github.com/mstasiak/ocusage/internal/version"
)

func main() {
	if os.Getenv("OCUSAGE_DEBUG") != "" {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Config path: %s\n", config.ConfigPath())
		os.Exit(1)
	}

	root := cobra.Command{
		Use:   "ocusage",
		Short: "ocusage tracks OpenCode token usage and keeps a daily history.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsage(cmd, cfg, windowAll)
		},
	}

	root.AddCommand(newTodayCommand(cfg))
	root.AddCommand(newMonthCommand(cfg))
	root.AddCommand(newLastMonthCommand(cfg))
	root.AddCommand(newHistoryCommand(cfg))
	root.AddCommand(newCollectCommand(cfg))
	root.AddCommand(newPruneCommand(cfg))
	root.AddCommand(newVersionCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ocusage", version.String())
		},
	}
}
