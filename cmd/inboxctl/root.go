package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "inboxctl",
		Short: "Operate the inbox ingestion pipeline outside Lambda",
		Long: `inboxctl previews how inbox files will be classified and loaded, and replays
saved S3 notification events through the full load-and-archive pipeline.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newReplayCmd())

	return rootCmd
}
