package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/didacticeureka/didacticeureka/agent/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and exit",
	Long: `Run locates today's settlement file, extracts the ATM strikes and IVs of
the two nearest expirations and publishes them. The --event payload is logged
as the invocation event and otherwise ignored.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		event, err := cmd.Flags().GetString("event")
		if err != nil {
			return err
		}

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := pipeline.FromConfig(cfg.Agent, nil)
		if err != nil {
			return err
		}

		res, err := p.Run(cmd.Context(), json.RawMessage(event))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	runCmd.Flags().String("event", `{"source":"agent.cli"}`, "invocation event payload (JSON)")
}
