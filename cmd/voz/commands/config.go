package commands

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Config prints the effective configuration as YAML, after defaults
are applied, along with the path it was loaded from.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if p := cfg.Path(); p != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", p)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		cmd.OutOrStdout().Write(data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
