package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Wait until every configured dependency accepts connections",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(cfg.Dependencies) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no dependencies configured")
			return nil
		}
		if err := newApp(cfg).WaitDependencies(cmd.Context()); err != nil {
			return err
		}
		for _, dep := range cfg.Dependencies {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): ok\n", dep.Name, dep.Kind)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
