package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/leadchat-api/internal/leads"
)

func newAnalyzeCmd(loadRules func() (leads.Rules, error)) *cobra.Command {
	var withQualification bool

	cmd := &cobra.Command{
		Use:   "analyze <text...>",
		Short: "Extract lead signals from a message",
		Long:  `Prints the intent, topics and extracted lead fields of a message as JSON.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules()
			if err != nil {
				return err
			}
			analysis := leads.NewAnalyzer(rules).Analyze(strings.Join(args, " "))
			if !withQualification {
				return printJSON(cmd, analysis)
			}
			return printJSON(cmd, struct {
				Analysis      leads.MessageAnalysis     `json:"analysis"`
				Qualification leads.QualificationResult `json:"qualification"`
			}{analysis, leads.Qualify(analysis.Extracted)})
		},
	}
	cmd.Flags().BoolVarP(&withQualification, "qualify", "q", false, "Also qualify the extracted fields")
	return cmd
}
