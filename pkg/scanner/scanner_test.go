// Test Type: Unit Test
// Description: Tests for pattern matching and field extraction against report files

package scanner_test

import (
	"fmt"
	"testing"

	"github.com/auditscope/auditscope/pkg/errors"
	"github.com/auditscope/auditscope/pkg/scanner"
	"github.com/auditscope/auditscope/pkg/testutil"
	"github.com/auditscope/auditscope/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compiledRule(t *testing.T, name, pattern string) *types.Rule {
	t.Helper()
	rule := &types.Rule{Name: name, Pattern: pattern}
	require.NoError(t, rule.Compile())
	return rule
}

func TestScanner_ScanFile(t *testing.T) {
	t.Run("named_groups_become_fields", func(t *testing.T) {
		env := testutil.NewReportFS()
		path := env.AddReport("web-01.txt",
			"irrelevant line",
			"PermitRootLogin no",
			"another line")

		rule := compiledRule(t, "ssh-root", `PermitRootLogin\s+(?P<value>\S+)`)
		results, err := scanner.New(env.FS).ScanFile(path, "web-01", rule)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, "web-01", results[0].SystemName)
		assert.Equal(t, 2, results[0].LineNumber)
		assert.Equal(t, "PermitRootLogin no", results[0].MatchedText)
		assert.Equal(t, map[string]string{"value": "no"}, results[0].Fields)
	})

	t.Run("rule_without_groups_reports_lines_only", func(t *testing.T) {
		env := testutil.NewReportFS()
		path := env.AddReport("web-01.txt", "error one", "ok", "error two")

		rule := compiledRule(t, "errors", `^error`)
		results, err := scanner.New(env.FS).ScanFile(path, "web-01", rule)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Nil(t, results[0].Fields)
		assert.Equal(t, []int{1, 3}, []int{results[0].LineNumber, results[1].LineNumber})
	})

	t.Run("max_results_caps_in_file_order", func(t *testing.T) {
		env := testutil.NewReportFS()
		lines := make([]string, 0, 10)
		for i := 0; i < 10; i++ {
			lines = append(lines, fmt.Sprintf("hit %d", i))
		}
		path := env.AddReport("web-01.txt", lines...)

		rule := compiledRule(t, "hits", `^hit`)
		rule.MaxResults = 3
		results, err := scanner.New(env.FS).ScanFile(path, "web-01", rule)
		require.NoError(t, err)

		require.Len(t, results, 3)
		assert.Equal(t, 1, results[0].LineNumber)
		assert.Equal(t, 3, results[2].LineNumber)
	})

	t.Run("merge_fields_combine_and_remove_sources", func(t *testing.T) {
		env := testutil.NewReportFS()
		path := env.AddReport("web-01.txt", "user root uid 0")

		rule := compiledRule(t, "users", `user (?P<a>\S+) uid (?P<b>\d+)`)
		rule.MergeFields = []types.MergeFieldConfig{{Dest: "c", Sources: []string{"a", "b"}}}

		results, err := scanner.New(env.FS).ScanFile(path, "web-01", rule)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, map[string]string{"c": "root 0"}, results[0].Fields)
	})

	t.Run("merge_skips_empty_sources", func(t *testing.T) {
		env := testutil.NewReportFS()
		path := env.AddReport("web-01.txt", "key=value")

		// group "extra" is optional and will not participate
		rule := compiledRule(t, "kv", `(?P<key>\w+)=(?P<val>\w+)(?P<extra>!)?`)
		rule.MergeFields = []types.MergeFieldConfig{{Dest: "pair", Sources: []string{"key", "extra", "val"}}}

		results, err := scanner.New(env.FS).ScanFile(path, "web-01", rule)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, map[string]string{"pair": "key value"}, results[0].Fields)
	})

	t.Run("unreadable_file_is_typed_error", func(t *testing.T) {
		env := testutil.NewReportFS()
		rule := compiledRule(t, "any", `.`)

		results, err := scanner.New(env.FS).ScanFile("reports/missing.txt", "missing", rule)
		require.Error(t, err)
		assert.Empty(t, results)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
	})

	t.Run("uncompiled_rule_is_internal_error", func(t *testing.T) {
		env := testutil.NewReportFS()
		path := env.AddReport("web-01.txt", "anything")

		rule := &types.Rule{Name: "raw", Pattern: `.`}
		_, err := scanner.New(env.FS).ScanFile(path, "web-01", rule)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInternal))
	})
}
