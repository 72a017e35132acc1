// Test Type: Unit Test
// Description: Tests for deterministic result ordering and run statistics

package results_test

import (
	"fmt"
	"testing"

	"github.com/auditscope/auditscope/pkg/execution"
	"github.com/auditscope/auditscope/pkg/results"
	"github.com/auditscope/auditscope/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedRule(name string) *types.Rule {
	return &types.Rule{Name: name, Pattern: "."}
}

func TestFinalize(t *testing.T) {
	t.Run("orders_by_system_then_line", func(t *testing.T) {
		ruleSet := map[string]*types.Rule{"r": namedRule("r")}
		raw := map[string][]types.SearchResult{
			"r": {
				{SystemName: "z", LineNumber: 1},
				{SystemName: "a", LineNumber: 5},
				{SystemName: "a", LineNumber: 2},
				{SystemName: "m", LineNumber: 9},
			},
		}

		final := results.Finalize(raw, ruleSet)
		list := final["r"].Results
		require.Len(t, list, 4)

		assert.Equal(t, "a", list[0].SystemName)
		assert.Equal(t, 2, list[0].LineNumber)
		assert.Equal(t, "a", list[1].SystemName)
		assert.Equal(t, 5, list[1].LineNumber)
		assert.Equal(t, "m", list[2].SystemName)
		assert.Equal(t, "z", list[3].SystemName)
	})

	t.Run("rules_without_results_still_present", func(t *testing.T) {
		ruleSet := map[string]*types.Rule{
			"hit":  namedRule("hit"),
			"miss": namedRule("miss"),
		}
		raw := map[string][]types.SearchResult{
			"hit": {{SystemName: "a", LineNumber: 1}},
		}

		final := results.Finalize(raw, ruleSet)
		require.Contains(t, final, "miss")
		assert.Zero(t, final["miss"].Count())
	})
}

func TestComputeStatistics(t *testing.T) {
	ruleSet := map[string]*types.Rule{
		"alpha": namedRule("alpha"),
		"beta":  namedRule("beta"),
		"gamma": namedRule("gamma"),
	}
	raw := map[string][]types.SearchResult{
		"alpha": {
			{SystemName: "host-1", LineNumber: 1, Fields: map[string]string{"v": "1"}},
			{SystemName: "host-2", LineNumber: 3, Fields: map[string]string{"v": "2"}},
		},
		"beta": {
			{SystemName: "host-1", LineNumber: 7},
			{SystemName: "host-1", LineNumber: 9},
		},
	}

	stats := results.ComputeStatistics(results.Finalize(raw, ruleSet))

	assert.Equal(t, 3, stats.TotalRules)
	assert.Equal(t, 2, stats.RulesWithResults)
	assert.Equal(t, 1, stats.RulesWithoutHits)
	assert.Equal(t, 4, stats.TotalMatches)
	assert.InDelta(t, 4.0/3.0, stats.AverageMatches, 1e-9)
	assert.Equal(t, 2, stats.UniqueSystems)
	assert.Equal(t, 1, stats.RulesWithFields)

	// count descending, name-ascending tie break on alpha/beta (2 each)
	require.Len(t, stats.TopRules, 3)
	assert.Equal(t, types.RuleCount{Rule: "alpha", Count: 2}, stats.TopRules[0])
	assert.Equal(t, types.RuleCount{Rule: "beta", Count: 2}, stats.TopRules[1])
	assert.Equal(t, types.RuleCount{Rule: "gamma", Count: 0}, stats.TopRules[2])
}

func TestComputeStatistics_TopRulesCapped(t *testing.T) {
	ruleSet := make(map[string]*types.Rule)
	raw := make(map[string][]types.SearchResult)
	for i := 0; i < results.TopRuleCount+20; i++ {
		name := fmt.Sprintf("rule-%03d", i)
		ruleSet[name] = namedRule(name)
		for j := 0; j <= i; j++ {
			raw[name] = append(raw[name], types.SearchResult{SystemName: "s", LineNumber: j + 1})
		}
	}

	stats := results.ComputeStatistics(results.Finalize(raw, ruleSet))
	require.Len(t, stats.TopRules, results.TopRuleCount)
	// highest count first
	assert.Equal(t, results.TopRuleCount+20, stats.TopRules[0].Count)
}

func TestBuildReport(t *testing.T) {
	ruleSet := map[string]*types.Rule{"r": namedRule("r")}
	outcome := &execution.RunOutcome{
		Raw: map[string][]types.SearchResult{
			"r": {{SystemName: "b", LineNumber: 2}, {SystemName: "a", LineNumber: 1}},
		},
		Partial:   true,
		Unstarted: 60,
		Completed: 40,
		Warnings:  []types.ValidationMessage{types.WarningMessage("r", "could not scan x")},
	}

	report := results.BuildReport(outcome, ruleSet)

	assert.True(t, report.Partial)
	assert.Equal(t, 60, report.UnstartedUnits)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "a", report.Results["r"].Results[0].SystemName)
	assert.Equal(t, 2, report.Stats.TotalMatches)
}
