package types

// SearchResult is one rule match on one line of one report file.
type SearchResult struct {
	// SystemName identifies the matched system
	SystemName string

	// LineNumber is the 1-based line the match occurred on
	LineNumber int

	// MatchedText is the full text of the matching line
	MatchedText string

	// Fields holds extracted named-capture values, after merge-field
	// directives have been applied; nil when the rule extracts nothing
	Fields map[string]string
}

// SearchResults is the final, ordered result set for one rule.
type SearchResults struct {
	// Rule is the rule these results belong to
	Rule *Rule

	// Results is ordered by (SystemName asc, LineNumber asc)
	Results []SearchResult
}

// Count returns the number of results.
func (s *SearchResults) Count() int {
	return len(s.Results)
}

// UniqueSystems returns the number of distinct systems with at least
// one result.
func (s *SearchResults) UniqueSystems() int {
	seen := make(map[string]struct{}, len(s.Results))
	for _, r := range s.Results {
		seen[r.SystemName] = struct{}{}
	}
	return len(seen)
}

// HasFields reports whether any result carries extracted fields.
func (s *SearchResults) HasFields() bool {
	for _, r := range s.Results {
		if len(r.Fields) > 0 {
			return true
		}
	}
	return false
}

// RuleCount pairs a rule name with its result count for rankings.
type RuleCount struct {
	Rule  string
	Count int
}

// RunStatistics aggregates result counts across all rules of a run.
type RunStatistics struct {
	TotalRules       int
	RulesWithResults int
	RulesWithoutHits int
	TotalMatches     int
	AverageMatches   float64
	UniqueSystems    int
	RulesWithFields  int

	// TopRules ranks rules by result count, descending, ties broken by
	// rule name ascending; at most 100 entries
	TopRules []RuleCount
}

// RunReport is the complete outcome of a run: final per-rule result
// sets, statistics, and everything the operator needs to judge the run.
type RunReport struct {
	// Results maps rule name to its finalized result set; every loaded
	// rule has an entry, empty or not
	Results map[string]*SearchResults

	// Stats summarizes the run
	Stats RunStatistics

	// Partial is true when the run was interrupted before all units ran
	Partial bool

	// UnstartedUnits counts (system, rule) pairs never started due to
	// interruption
	UnstartedUnits int

	// Warnings itemizes skipped files and failed scan units
	Warnings []ValidationMessage
}
