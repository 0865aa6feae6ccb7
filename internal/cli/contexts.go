package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(contextsCmd)
}

var contextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "List the cloud contexts lazycloud can open",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := contextSource(rootOpts.demo)
		if err != nil {
			return err
		}
		list, err := src.load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "(none)")
			return nil
		}
		for _, c := range list {
			fmt.Fprintf(out, "- %s\n", c.Label())
		}
		return nil
	},
}
