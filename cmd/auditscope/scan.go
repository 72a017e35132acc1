package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/auditscope/auditscope/pkg/classify"
	"github.com/auditscope/auditscope/pkg/execution"
	"github.com/auditscope/auditscope/pkg/filesystem"
	"github.com/auditscope/auditscope/pkg/results"
	"github.com/auditscope/auditscope/pkg/rules"
	"github.com/auditscope/auditscope/pkg/types"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	scanRulesFile  string
	scanWorkers    int
	scanMaxLines   int
	scanNoProgress bool
	scanCSVDir     string
)

var scanCmd = &cobra.Command{
	Use:   "scan <reports-dir>",
	Short: "Classify report files and run the rule library against them",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanRulesFile, "rules", "r", "auditscope.yaml", "Rule library to load")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "Worker pool size (default: number of CPUs)")
	scanCmd.Flags().IntVar(&scanMaxLines, "max-lines", classify.DefaultPrefixLines, "Lines of each file inspected during classification")
	scanCmd.Flags().BoolVar(&scanNoProgress, "no-progress", false, "Disable the progress bar")
	scanCmd.Flags().StringVar(&scanCSVDir, "csv", "", "Write one CSV file per rule into this directory")
}

func runScan(cmd *cobra.Command, args []string) error {
	fsys := filesystem.NewOS()

	paths, err := listReportFiles(fsys, args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no report files found in %s", args[0])
	}

	loaded, err := rules.NewLoader().Load(scanRulesFile)
	if err != nil {
		return err
	}
	printMessages(loaded.Messages)
	if len(loaded.Rules) == 0 {
		return fmt.Errorf("no valid rules in %s", scanRulesFile)
	}

	classifier := classify.New(fsys)
	classifier.PrefixLines = scanMaxLines
	systems, warnings := classifier.ClassifyAll(paths)
	if len(systems) == 0 {
		printMessages(warnings)
		return fmt.Errorf("no classifiable report files in %s", args[0])
	}

	// SIGINT stops submitting new units; in-flight units finish and the
	// report comes back partial.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts := execution.Options{MaxWorkers: scanWorkers}
	var bar *pterm.ProgressbarPrinter
	if showProgress() {
		opts.Progress = func(ev execution.ProgressEvent) {
			if bar == nil {
				bar, _ = pterm.DefaultProgressbar.WithTotal(ev.Total).WithTitle("Scanning").Start()
			}
			bar.Increment()
		}
	}

	outcome, err := execution.NewCoordinator(fsys, opts).Run(ctx, systems, loaded.Rules)
	if bar != nil {
		_, _ = bar.Stop()
	}
	if err != nil {
		return err
	}

	report := results.BuildReport(outcome, loaded.Rules)
	report.Warnings = append(warnings, report.Warnings...)

	renderReport(report)

	if scanCSVDir != "" {
		if err := exportCSV(report, scanCSVDir); err != nil {
			return err
		}
		pterm.Info.Printfln("CSV results written to %s", scanCSVDir)
	}

	return nil
}

// listReportFiles returns every regular, non-hidden file in dir.
func listReportFiles(fsys filesystem.FS, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read reports directory %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func showProgress() bool {
	return !scanNoProgress && isatty.IsTerminal(os.Stdout.Fd())
}

func printMessages(msgs []types.ValidationMessage) {
	for _, m := range msgs {
		switch m.Level {
		case types.LevelError:
			pterm.Error.Println(m.String())
		case types.LevelWarning:
			pterm.Warning.Println(m.String())
		default:
			pterm.Info.Println(m.String())
		}
	}
}

func renderReport(report *types.RunReport) {
	if report.Partial {
		pterm.Warning.Printfln("Run interrupted: partial results, %d units never started", report.UnstartedUnits)
	}
	printMessages(report.Warnings)

	rows := pterm.TableData{{"Rule", "Results", "Systems", "Fields"}}
	for _, rc := range report.Stats.TopRules {
		set := report.Results[rc.Rule]
		fields := ""
		if set.HasFields() {
			fields = "yes"
		}
		rows = append(rows, []string{rc.Rule, fmt.Sprintf("%d", rc.Count), fmt.Sprintf("%d", set.UniqueSystems()), fields})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	stats := report.Stats
	pterm.Info.Printfln("%d rules, %d with results, %d matches total (avg %.1f), %d unique systems",
		stats.TotalRules, stats.RulesWithResults, stats.TotalMatches, stats.AverageMatches, stats.UniqueSystems)
}
