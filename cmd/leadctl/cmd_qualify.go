package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/leadchat-api/internal/leads"
)

func newQualifyCmd() *cobra.Command {
	var lead leads.LeadInfo

	cmd := &cobra.Command{
		Use:   "qualify",
		Short: "Score a lead",
		Long:  `Prints the score, category, recommended action and missing fields of a lead built from flags.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := leads.Qualify(lead)
			return printJSON(cmd, struct {
				leads.QualificationResult
				Escalate     bool   `json:"escalate"`
				NextQuestion string `json:"nextQuestion,omitempty"`
			}{
				QualificationResult: result,
				Escalate:            leads.ShouldEscalate(lead),
				NextQuestion:        leads.NextQuestionFor(lead),
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&lead.Email, "email", "", "Contact email")
	f.StringVar(&lead.Company, "company", "", "Company name")
	f.StringVar(&lead.Industry, "industry", "", "Industry")
	f.StringVar(&lead.CompanySize, "size", "", "Company size: 1-50, 51-200, 201-1000, 1000+")
	f.StringSliceVar(&lead.Needs, "needs", nil, "Topic tags, comma separated")
	f.StringVar(&lead.Timeline, "timeline", "", "immediate, 1-3 months, 3-6 months, 6+ months")
	f.StringVar(&lead.Budget, "budget", "", "Budget")
	f.StringVar(&lead.ContactPreference, "contact", "", "email, phone or meeting")
	return cmd
}
