package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(servicesCmd)
}

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List registered services",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, d := range reg.All() {
			fmt.Fprintf(out, "- %s: %s · %s\n", d.ID, d.Name, d.Description)
		}
		return nil
	},
}
