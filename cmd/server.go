package cmd

import (
	"Shelfwave/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Shelfwave server",
	Long:  `Start the Shelfwave HTTP server serving the library API, playback sessions and transport websocket.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
