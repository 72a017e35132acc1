package main

import (
	"github.com/auditscope/auditscope/pkg/classify"
	"github.com/auditscope/auditscope/pkg/filesystem"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var classifyMaxLines int

var classifyCmd = &cobra.Command{
	Use:   "classify <reports-dir>",
	Short: "Classify report files without scanning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys := filesystem.NewOS()
		paths, err := listReportFiles(fsys, args[0])
		if err != nil {
			return err
		}

		classifier := classify.New(fsys)
		classifier.PrefixLines = classifyMaxLines
		systems, warnings := classifier.ClassifyAll(paths)
		printMessages(warnings)

		rows := pterm.TableData{{"System", "Producer", "Version", "OS", "Distro"}}
		for _, s := range systems {
			rows = append(rows, []string{
				s.SystemName,
				string(s.Producer),
				s.ProducerVersion,
				string(s.OSFamily),
				string(s.DistroFamily),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func init() {
	classifyCmd.Flags().IntVar(&classifyMaxLines, "max-lines", classify.DefaultPrefixLines, "Lines of each file inspected during classification")
}
