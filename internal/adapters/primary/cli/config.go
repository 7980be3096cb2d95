package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the effective configuration in config file form.
The output can be passed back with --config. Dependency passwords are masked.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := yaml.Marshal(cfg.Document())
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		w := cmd.OutOrStdout()
		if cfg.File != "" {
			fmt.Fprintf(w, "# loaded from %s\n", cfg.File)
		}
		_, err = w.Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
