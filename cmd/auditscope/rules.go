package main

import (
	"fmt"
	"os"

	"github.com/auditscope/auditscope/pkg/rules"
	"github.com/auditscope/auditscope/pkg/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and generate rule libraries",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check <rules-file>",
	Short: "Load and validate a rule library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := rules.NewLoader().Load(args[0])
		if err != nil {
			return err
		}
		printMessages(loaded.Messages)
		pterm.Info.Printfln("%d valid rules loaded from %s", len(loaded.Rules), args[0])
		if types.HasErrors(loaded.Messages) {
			return fmt.Errorf("rule library has errors")
		}
		return nil
	},
}

var rulesGenOutput string

var rulesGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a starter rule library",
	RunE: func(cmd *cobra.Command, args []string) error {
		sample, err := rules.SampleConfig()
		if err != nil {
			return err
		}
		if rulesGenOutput == "" || rulesGenOutput == "-" {
			_, err = os.Stdout.Write(sample)
			return err
		}
		if _, statErr := os.Stat(rulesGenOutput); statErr == nil {
			return fmt.Errorf("%s already exists, not overwriting", rulesGenOutput)
		}
		if err := os.WriteFile(rulesGenOutput, sample, 0644); err != nil {
			return err
		}
		pterm.Info.Printfln("Wrote starter rule library to %s", rulesGenOutput)
		return nil
	},
}

func init() {
	rulesGenCmd.Flags().StringVarP(&rulesGenOutput, "output", "o", "", "Write to file instead of stdout")
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesGenCmd)
}
