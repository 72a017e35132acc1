// Package execution schedules the cross-product of classified systems
// and loaded rules across a bounded worker pool.
//
// Each (system, rule) pair is one independent unit of work: the worker
// reads its own file content and reuses the rule's compiled pattern,
// so units share no mutable state. Interruption is cooperative: once
// the context is cancelled no new units start, in-flight units drain,
// and the outcome is returned as partial.
package execution

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/auditscope/auditscope/pkg/filesystem"
	"github.com/auditscope/auditscope/pkg/filters"
	"github.com/auditscope/auditscope/pkg/logging"
	"github.com/auditscope/auditscope/pkg/scanner"
	"github.com/auditscope/auditscope/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// ProgressEvent reports one completed unit. Events arrive in
// completion order, which carries no meaning beyond "work is moving".
type ProgressEvent struct {
	Completed int
	Total     int
	Rule      string
	System    string
	Matches   int
}

// Options configures a run.
type Options struct {
	// MaxWorkers bounds concurrent scan units; 0 means GOMAXPROCS
	MaxWorkers int

	// Progress, when set, is called once per completed unit from the
	// collecting goroutine (no caller-side locking needed)
	Progress func(ProgressEvent)
}

// RunOutcome is the raw result of a run, before aggregation.
type RunOutcome struct {
	// Raw maps rule name to its unordered result list
	Raw map[string][]types.SearchResult

	// Partial is true when the run was interrupted
	Partial bool

	// Unstarted counts units never submitted due to interruption
	Unstarted int

	// Completed counts units that ran to completion
	Completed int

	// Warnings itemizes units whose file could not be scanned
	Warnings []types.ValidationMessage
}

// Coordinator runs scan units over a worker pool.
type Coordinator struct {
	scanner *scanner.Scanner
	opts    Options
	logger  zerolog.Logger
}

// unit is one (system, rule) pair of work.
type unit struct {
	system *types.SystemRecord
	rule   *types.Rule
}

// unitResult carries one unit's outcome to the collector.
type unitResult struct {
	unit    unit
	results []types.SearchResult
	err     error
}

// NewCoordinator creates a coordinator scanning through the given
// filesystem.
func NewCoordinator(fsys filesystem.FS, opts Options) *Coordinator {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = runtime.GOMAXPROCS(0)
	}
	return &Coordinator{
		scanner: scanner.New(fsys),
		opts:    opts,
		logger:  logging.GetLogger("execution.coordinator"),
	}
}

// Run evaluates every applicable (system, rule) pair and returns the
// raw per-rule results. Cancellation via ctx is a normal terminal
// state, not an error: the outcome comes back marked partial with the
// count of units never started.
func (c *Coordinator) Run(ctx context.Context, systems []*types.SystemRecord, rules map[string]*types.Rule) (*RunOutcome, error) {
	units := c.applicableUnits(systems, rules)

	outcome := &RunOutcome{Raw: make(map[string][]types.SearchResult, len(rules))}
	for name := range rules {
		outcome.Raw[name] = nil
	}

	c.logger.Info().
		Int("systems", len(systems)).
		Int("rules", len(rules)).
		Int("units", len(units)).
		Int("workers", c.opts.MaxWorkers).
		Msg("Starting scan run")

	if len(units) == 0 {
		return outcome, nil
	}

	sem := semaphore.NewWeighted(int64(c.opts.MaxWorkers))
	resultCh := make(chan unitResult)
	unstarted := 0

	go func() {
		var wg sync.WaitGroup
		for i, u := range units {
			// Cooperative cancellation: stop submitting, let the
			// in-flight units finish.
			if err := sem.Acquire(ctx, 1); err != nil {
				unstarted = len(units) - i
				break
			}
			wg.Add(1)
			go func(u unit) {
				defer wg.Done()
				defer sem.Release(1)
				results, err := c.scanner.ScanFile(u.system.Path, u.system.SystemName, u.rule)
				resultCh <- unitResult{unit: u, results: results, err: err}
			}(u)
		}
		wg.Wait()
		close(resultCh)
	}()

	for r := range resultCh {
		outcome.Completed++
		if r.err != nil {
			c.logger.Warn().
				Err(r.err).
				Str("rule", r.unit.rule.Name).
				Str("system", r.unit.system.SystemName).
				Msg("Scan unit failed, skipping")
			outcome.Warnings = append(outcome.Warnings,
				types.WarningMessage(r.unit.rule.Name, "could not scan %s: %v", r.unit.system.Path, r.err))
		} else {
			outcome.Raw[r.unit.rule.Name] = append(outcome.Raw[r.unit.rule.Name], r.results...)
		}

		if c.opts.Progress != nil {
			c.opts.Progress(ProgressEvent{
				Completed: outcome.Completed,
				Total:     len(units),
				Rule:      r.unit.rule.Name,
				System:    r.unit.system.SystemName,
				Matches:   len(r.results),
			})
		}
	}

	// The submit goroutine wrote unstarted before closing resultCh, so
	// the read here is ordered after it.
	outcome.Unstarted = unstarted
	outcome.Partial = unstarted > 0

	c.logger.Info().
		Int("completed", outcome.Completed).
		Int("unstarted", outcome.Unstarted).
		Bool("partial", outcome.Partial).
		Msg("Scan run finished")

	return outcome, nil
}

// applicableUnits builds the filter-pruned cross-product. Rules are
// walked in sorted-name order per system purely so unit submission is
// reproducible; completion order is still scheduler-dependent.
func (c *Coordinator) applicableUnits(systems []*types.SystemRecord, rules map[string]*types.Rule) []unit {
	names := sortedRuleNames(rules)

	var units []unit
	for _, system := range systems {
		for _, name := range names {
			rule := rules[name]
			if !filters.Applies(system, rule.SystemFilters) {
				continue
			}
			units = append(units, unit{system: system, rule: rule})
		}
	}
	return units
}

func sortedRuleNames(rules map[string]*types.Rule) []string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
