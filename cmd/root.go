package cmd

import (
	"fmt"
	"log"
	"os"

	"Shelfwave/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shelfwave",
	Short: "Shelfwave is a self-hosted personal media library service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting Shelfwave server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
