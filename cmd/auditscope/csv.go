package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/auditscope/auditscope/pkg/types"
)

// exportCSV writes one CSV file per rule with at least one result.
// Columns: system, line, matched text, then the union of extracted
// field names in sorted order.
func exportCSV(report *types.RunReport, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create CSV directory %s: %w", dir, err)
	}

	for name, set := range report.Results {
		if set.Count() == 0 {
			continue
		}
		if err := writeRuleCSV(filepath.Join(dir, name+".csv"), set); err != nil {
			return err
		}
	}
	return nil
}

func writeRuleCSV(path string, set *types.SearchResults) error {
	fields := fieldColumns(set)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"system", "line", "matched_text"}, fields...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range set.Results {
		row := []string{r.SystemName, fmt.Sprintf("%d", r.LineNumber), r.MatchedText}
		for _, field := range fields {
			row = append(row, r.Fields[field])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// fieldColumns returns the sorted union of field names across results.
func fieldColumns(set *types.SearchResults) []string {
	seen := make(map[string]bool)
	for _, r := range set.Results {
		for name := range r.Fields {
			seen[name] = true
		}
	}
	fields := make([]string, 0, len(seen))
	for name := range seen {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
