package cli

import (
	"github.com/spf13/cobra"
)

var skipDeps bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Wait for dependencies and run the setup steps without starting services",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a := newApp(cfg)
		if !skipDeps {
			if err := a.WaitDependencies(cmd.Context()); err != nil {
				return err
			}
		}
		return a.RunSetup(cmd.Context())
	},
}

func init() {
	setupCmd.Flags().BoolVar(&skipDeps, "skip-deps", false, "do not wait for dependencies")
	rootCmd.AddCommand(setupCmd)
}
