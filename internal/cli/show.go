package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamer-stats/internal/app"
)

var showStreamer string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display stored history rows for a streamer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showStreamer == "" {
			return fmt.Errorf("--streamer must be provided")
		}
		return getApp().Show(cmd.Context(), app.ShowOptions{Streamer: showStreamer})
	},
}

func init() {
	showCmd.Flags().StringVar(&showStreamer, "streamer", "", "Channel name to display")
}
