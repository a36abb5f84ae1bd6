// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medical-agent/internal/validate"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the question validation policy",
}

var policyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the validation policy as YAML",
	Long: `Export writes the active validation policy (the built-in table, or the
file named by policy.file) as YAML, ready to be edited and referenced from
the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := validate.DefaultPolicy()
		if builtin, _ := cmd.Flags().GetBool("builtin"); !builtin {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Policy.File != "" {
				if p, err = validate.LoadPolicy(cfg.Policy.File); err != nil {
					return err
				}
			}
		}

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			defer f.Close()
			out = f
		}
		return validate.WritePolicy(out, p)
	},
}

func init() {
	policyExportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	policyExportCmd.Flags().Bool("builtin", false, "export the built-in table, ignoring configuration")

	policyCmd.AddCommand(policyExportCmd)
	rootCmd.AddCommand(policyCmd)
}
