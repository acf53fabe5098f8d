package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/v7h-lab/Nomen-origins/internal/intent"
)

var classifyCmd = &cobra.Command{
	Use:   "classify INPUT...",
	Short: "Show whether each input would be looked up as a name or sent to the assistant",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, in := range args {
			fmt.Fprintf(out, "%-40s %s\n", in, intent.Classify(in))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
