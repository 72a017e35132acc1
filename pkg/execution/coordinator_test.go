// Test Type: Unit Test
// Description: Tests for worker-pool scheduling, progress, and cancellation

package execution_test

import (
	"context"
	"sync"
	"testing"

	"github.com/auditscope/auditscope/pkg/classify"
	"github.com/auditscope/auditscope/pkg/execution"
	"github.com/auditscope/auditscope/pkg/testutil"
	"github.com/auditscope/auditscope/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRule(t *testing.T, name, pattern string, filterList ...types.SystemFilter) *types.Rule {
	t.Helper()
	rule := &types.Rule{Name: name, Pattern: pattern, SystemFilters: filterList}
	require.NoError(t, rule.Compile())
	return rule
}

func TestCoordinator_Run(t *testing.T) {
	t.Run("scans_applicable_pairs_only", func(t *testing.T) {
		env := testutil.NewReportFS()
		linux := env.AddReport("web-01.txt", testutil.LinuxReport("PermitRootLogin no")...)
		windows := env.AddReport("dc-01.txt", testutil.WindowsReport("PermitRootLogin no")...)

		classifier := classify.New(env.FS)
		systems, warnings := classifier.ClassifyAll([]string{linux, windows})
		require.Empty(t, warnings)
		require.Len(t, systems, 2)

		ruleSet := map[string]*types.Rule{
			"ssh-root": buildRule(t, "ssh-root", `PermitRootLogin\s+(?P<value>\S+)`,
				types.SystemFilter{Attr: types.FilterAttrOSFamily, Comp: types.CompEq, Value: "Linux"}),
			"everywhere": buildRule(t, "everywhere", `VERSION`),
		}

		coordinator := execution.NewCoordinator(env.FS, execution.Options{MaxWorkers: 4})
		outcome, err := coordinator.Run(context.Background(), systems, ruleSet)
		require.NoError(t, err)

		assert.False(t, outcome.Partial)
		assert.Zero(t, outcome.Unstarted)

		// ssh-root only ran against the Linux system
		sshResults := outcome.Raw["ssh-root"]
		require.Len(t, sshResults, 1)
		assert.Equal(t, "web-01", sshResults[0].SystemName)
		assert.Equal(t, map[string]string{"value": "no"}, sshResults[0].Fields)

		// the unfiltered rule hit the version banner of both files
		systemsHit := make(map[string]bool)
		for _, r := range outcome.Raw["everywhere"] {
			systemsHit[r.SystemName] = true
		}
		assert.True(t, systemsHit["web-01"])
		assert.True(t, systemsHit["dc-01"])
	})

	t.Run("every_rule_has_an_entry", func(t *testing.T) {
		env := testutil.NewReportFS()
		linux := env.AddReport("web-01.txt", testutil.LinuxReport()...)

		systems, _ := classify.New(env.FS).ClassifyAll([]string{linux})
		ruleSet := map[string]*types.Rule{
			"no-hits": buildRule(t, "no-hits", `zzz-never-matches`),
		}

		outcome, err := execution.NewCoordinator(env.FS, execution.Options{}).Run(context.Background(), systems, ruleSet)
		require.NoError(t, err)

		_, present := outcome.Raw["no-hits"]
		assert.True(t, present)
		assert.Empty(t, outcome.Raw["no-hits"])
	})

	t.Run("progress_fires_per_completed_unit", func(t *testing.T) {
		env := testutil.NewReportFS()
		var paths []string
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			paths = append(paths, env.AddReport(name, testutil.LinuxReport()...))
		}
		systems, _ := classify.New(env.FS).ClassifyAll(paths)

		ruleSet := map[string]*types.Rule{
			"r1": buildRule(t, "r1", `OS_NAME`),
			"r2": buildRule(t, "r2", `hostname`),
		}

		var mu sync.Mutex
		var events []execution.ProgressEvent
		opts := execution.Options{
			MaxWorkers: 2,
			Progress: func(ev execution.ProgressEvent) {
				mu.Lock()
				events = append(events, ev)
				mu.Unlock()
			},
		}

		outcome, err := execution.NewCoordinator(env.FS, opts).Run(context.Background(), systems, ruleSet)
		require.NoError(t, err)

		require.Len(t, events, 6) // 3 systems x 2 rules
		assert.Equal(t, 6, outcome.Completed)
		// Completed counters arrive in order even though unit completion
		// order is scheduler-dependent
		for i, ev := range events {
			assert.Equal(t, i+1, ev.Completed)
			assert.Equal(t, 6, ev.Total)
		}
	})

	t.Run("unreadable_unit_degrades_to_warning", func(t *testing.T) {
		env := testutil.NewReportFS()
		good := env.AddReport("good.txt", testutil.LinuxReport()...)

		systems, _ := classify.New(env.FS).ClassifyAll([]string{good})
		require.Len(t, systems, 1)

		// the file disappears between classification and scanning
		ghost := &types.SystemRecord{
			SystemName: "ghost",
			Path:       "reports/ghost.txt",
			OSFamily:   types.OSLinux,
			Producer:   types.ProducerOther,
		}
		systems = append(systems, ghost)

		ruleSet := map[string]*types.Rule{
			"banner": buildRule(t, "banner", `KPNIXVERSION`),
		}

		outcome, err := execution.NewCoordinator(env.FS, execution.Options{}).Run(context.Background(), systems, ruleSet)
		require.NoError(t, err)

		require.Len(t, outcome.Raw["banner"], 1)
		assert.Equal(t, "good", outcome.Raw["banner"][0].SystemName)
		require.Len(t, outcome.Warnings, 1)
		assert.Equal(t, types.LevelWarning, outcome.Warnings[0].Level)
		assert.Equal(t, "banner", outcome.Warnings[0].Rule)
	})

	t.Run("cancellation_returns_partial_outcome", func(t *testing.T) {
		env := testutil.NewReportFS()
		var paths []string
		for i := 0; i < 20; i++ {
			paths = append(paths, env.AddReport(string(rune('a'+i))+".txt", testutil.LinuxReport()...))
		}
		systems, _ := classify.New(env.FS).ClassifyAll(paths)
		require.Len(t, systems, 20)

		ruleSet := map[string]*types.Rule{
			"banner": buildRule(t, "banner", `KPNIXVERSION`),
		}

		ctx, cancel := context.WithCancel(context.Background())
		fired := false
		opts := execution.Options{
			MaxWorkers: 1,
			Progress: func(ev execution.ProgressEvent) {
				if !fired {
					fired = true
					cancel()
				}
			},
		}

		outcome, err := execution.NewCoordinator(env.FS, opts).Run(ctx, systems, ruleSet)
		require.NoError(t, err, "cancellation is a normal terminal state, not an error")

		assert.True(t, outcome.Partial)
		assert.Greater(t, outcome.Unstarted, 0)
		assert.Greater(t, outcome.Completed, 0)
		assert.Equal(t, 20, outcome.Completed+outcome.Unstarted)
		assert.Len(t, outcome.Raw["banner"], outcome.Completed)
	})

	t.Run("pre_cancelled_context_runs_nothing", func(t *testing.T) {
		env := testutil.NewReportFS()
		path := env.AddReport("a.txt", testutil.LinuxReport()...)
		systems, _ := classify.New(env.FS).ClassifyAll([]string{path})

		ruleSet := map[string]*types.Rule{
			"banner": buildRule(t, "banner", `KPNIXVERSION`),
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		outcome, err := execution.NewCoordinator(env.FS, execution.Options{}).Run(ctx, systems, ruleSet)
		require.NoError(t, err)
		assert.True(t, outcome.Partial)
		assert.Equal(t, 1, outcome.Unstarted)
		assert.Zero(t, outcome.Completed)
	})
}
