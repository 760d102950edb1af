package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/leadchat-api/internal/leads"
)

func newRulesCmd(loadRules func() (leads.Rules, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the active rule table as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := loadRules()
			if err != nil {
				return err
			}
			data, err := rules.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
