package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"shotrelay/internal/version"
)

func newConfigCommand(app *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings with the secret masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := app.loadSettings()
			if err != nil {
				return err
			}
			encoder := yaml.NewEncoder(app.out)
			encoder.SetIndent(2)
			if err := encoder.Encode(settings.Redacted()); err != nil {
				return fmt.Errorf("encode settings: %w", err)
			}
			return encoder.Close()
		},
	})
	return configCmd
}

func newVersionCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(app.out, version.GetVersionInfo().String())
		},
	}
}
