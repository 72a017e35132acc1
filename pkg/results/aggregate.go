// Package results turns raw per-rule result lists into deterministic,
// ordered result sets with run-wide summary statistics.
package results

import (
	"sort"

	"github.com/auditscope/auditscope/pkg/execution"
	"github.com/auditscope/auditscope/pkg/types"
)

// TopRuleCount caps the "top rules by result count" ranking.
const TopRuleCount = 100

// Finalize sorts each rule's raw results into the canonical
// (system_name asc, line_number asc) order, independent of scheduling.
// Every loaded rule appears in the output, empty or not.
func Finalize(raw map[string][]types.SearchResult, rules map[string]*types.Rule) map[string]*types.SearchResults {
	out := make(map[string]*types.SearchResults, len(rules))

	for name, rule := range rules {
		list := raw[name]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].SystemName != list[j].SystemName {
				return list[i].SystemName < list[j].SystemName
			}
			return list[i].LineNumber < list[j].LineNumber
		})
		out[name] = &types.SearchResults{Rule: rule, Results: list}
	}

	return out
}

// ComputeStatistics derives the cross-rule aggregate for a finalized
// result mapping.
func ComputeStatistics(results map[string]*types.SearchResults) types.RunStatistics {
	stats := types.RunStatistics{TotalRules: len(results)}

	systems := make(map[string]struct{})
	counts := make([]types.RuleCount, 0, len(results))

	for name, set := range results {
		n := set.Count()
		stats.TotalMatches += n
		if n > 0 {
			stats.RulesWithResults++
		} else {
			stats.RulesWithoutHits++
		}
		if set.HasFields() {
			stats.RulesWithFields++
		}
		for _, r := range set.Results {
			systems[r.SystemName] = struct{}{}
		}
		counts = append(counts, types.RuleCount{Rule: name, Count: n})
	}

	stats.UniqueSystems = len(systems)
	if stats.TotalRules > 0 {
		stats.AverageMatches = float64(stats.TotalMatches) / float64(stats.TotalRules)
	}

	// Rank by count descending, ties by rule name ascending.
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Rule < counts[j].Rule
	})
	if len(counts) > TopRuleCount {
		counts = counts[:TopRuleCount]
	}
	stats.TopRules = counts

	return stats
}

// BuildReport assembles the user-facing report from a run outcome.
func BuildReport(outcome *execution.RunOutcome, rules map[string]*types.Rule) *types.RunReport {
	finalized := Finalize(outcome.Raw, rules)
	return &types.RunReport{
		Results:        finalized,
		Stats:          ComputeStatistics(finalized),
		Partial:        outcome.Partial,
		UnstartedUnits: outcome.Unstarted,
		Warnings:       outcome.Warnings,
	}
}
