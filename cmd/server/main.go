// Package main provides the Studio Ops API binary: the REST API for bookings,
// quotes and orders plus the realtime admin notification server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "studio-ops-api",
		Short: "Studio Ops API - REST API with realtime admin notifications",
		Long: `Studio Ops API serves the booking, quote and order endpoints and pushes
domain events to connected admin dashboards over WebSocket.

Configuration is read from the environment and an optional .env file.

Examples:
  studio-ops-api serve                                  # Start the server
  studio-ops-api migrate                                # Create or update tables
  studio-ops-api create-user --username alice --role admin
  studio-ops-api token --user-id usr-1 --role admin     # Mint a token for testing`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newCreateUserCmd(),
		newTokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "studio-ops-api %s (commit %s)\n", version, commit)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
