package cli

import (
	"github.com/spf13/cobra"

	"lazycloud/internal/settings"
)

func init() {
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Edit theme, tick interval and log level",
	RunE: func(cmd *cobra.Command, args []string) error {
		return settings.Run()
	},
}
