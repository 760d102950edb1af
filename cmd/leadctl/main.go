// Command leadctl runs the lead signal extractor and qualifier offline,
// for tuning rule tables against real transcripts.
//
// Usage:
//
//	leadctl analyze "We need a RAG pilot this quarter"
//	leadctl qualify --email a@b.co --company Acme --size 1000+ --needs automation
//	leadctl rules --rules custom-rules.yaml
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/leadchat-api/internal/leads"
	"github.com/jmylchreest/leadchat-api/internal/version"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var rulesFile string

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Inspect lead analysis and qualification",
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&rulesFile, "rules", os.Getenv("LEAD_RULES_FILE"), "YAML rule table (default: embedded rules)")

	loadRules := func() (leads.Rules, error) {
		if rulesFile == "" {
			return leads.DefaultRules(), nil
		}
		return leads.LoadRules(rulesFile)
	}

	root.AddCommand(
		newAnalyzeCmd(loadRules),
		newQualifyCmd(),
		newRulesCmd(loadRules),
	)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
