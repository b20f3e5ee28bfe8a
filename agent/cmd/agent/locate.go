package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/didacticeureka/didacticeureka/agent/internal/scraper"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Print the URL of today's settlement file without downloading it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		link, err := scraper.New(cfg.Agent.Source, nil).LocateCSV(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}
