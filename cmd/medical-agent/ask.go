// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medical-agent/internal/app"
	"github.com/pdiddy/medical-agent/internal/cli"
	"github.com/pdiddy/medical-agent/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one health question",
	Long: `Ask runs a question through validation, evidence retrieval, summarization
and the disclaimer stage, then prints the answer. With --trace the output of
every stage is printed as YAML.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if source, _ := cmd.Flags().GetString("source"); source != "" {
			cfg.Evidence.Provider = types.EvidenceProvider(strings.ToLower(source))
		}

		a, err := app.Build(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		question := strings.Join(args, " ")
		out := cli.NewRenderer(cmd.OutOrStdout())

		if trace, _ := cmd.Flags().GetBool("trace"); trace {
			return out.YAML(a.Agent.Trace(cmd.Context(), question))
		}

		resp := a.Agent.Ask(cmd.Context(), question)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := out.JSON(resp); err != nil {
				return err
			}
		} else {
			out.Response(resp)
		}
		if resp.ErrorKind == types.ErrorUnexpected {
			return fmt.Errorf("%s", resp.Error)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("json", false, "print the response as JSON")
	askCmd.Flags().Bool("trace", false, "print every stage's output as YAML")
	askCmd.Flags().String("source", "", "evidence source override: wikipedia or pubmed")

	rootCmd.AddCommand(askCmd)
}
