package cmd

import (
	"apiary/app"
	"apiary/log"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apiary",
	Short: "apiary - a terminal dashboard for running several coding-assistant sessions at once",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Initialize()
		log.InitDebug()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(context.Background())
	},
}

// Execute runs the root command, exiting the process with its reported
// status on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "apiary:", err)
		os.Exit(1)
	}
}
