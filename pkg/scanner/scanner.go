// Package scanner evaluates one compiled rule against one report
// file's lines, extracting named-capture fields and applying the
// rule's merge-field directives.
package scanner

import (
	"strings"

	"github.com/auditscope/auditscope/pkg/errors"
	"github.com/auditscope/auditscope/pkg/filesystem"
	"github.com/auditscope/auditscope/pkg/logging"
	"github.com/auditscope/auditscope/pkg/types"
	"github.com/rs/zerolog"
)

// Scanner matches rules against report files.
type Scanner struct {
	fs     filesystem.FS
	logger zerolog.Logger
}

// New creates a scanner reading through the given filesystem.
func New(fsys filesystem.FS) *Scanner {
	return &Scanner{
		fs:     fsys,
		logger: logging.GetLogger("scanner"),
	}
}

// ScanFile opens the file and scans it with the rule. An unreadable or
// undecodable file is a typed error the caller turns into a warning;
// it never aborts the rule's evaluation against other files.
func (s *Scanner) ScanFile(path, system string, rule *types.Rule) ([]types.SearchResult, error) {
	source, err := filesystem.Open(s.fs, path)
	if err != nil {
		return nil, err
	}
	return s.ScanSource(source, system, rule)
}

// ScanSource scans an already opened content source line by line. The
// rule's pattern must have been compiled at load time; scanning never
// compiles.
func (s *Scanner) ScanSource(source filesystem.ContentSource, system string, rule *types.Rule) ([]types.SearchResult, error) {
	re := rule.Compiled()
	if re == nil {
		return nil, errors.Newf(errors.ErrInternal, "rule %q was not compiled", rule.Name)
	}

	var results []types.SearchResult
	source.Lines(func(num int, text string) bool {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return true
		}

		result := types.SearchResult{
			SystemName:  system,
			LineNumber:  num,
			MatchedText: text,
			Fields:      extractFields(re.SubexpNames(), m),
		}
		applyMergeFields(result.Fields, rule.MergeFields)
		results = append(results, result)

		// Stop once the per-file cap is reached, in file order.
		return rule.MaxResults == 0 || len(results) < rule.MaxResults
	})

	s.logger.Trace().
		Str("rule", rule.Name).
		Str("system", system).
		Int("matches", len(results)).
		Msg("Scanned file")

	return results, nil
}

// extractFields maps named capture groups to field values. Groups that
// did not participate in the match are absent, not empty.
func extractFields(names []string, match []string) map[string]string {
	var fields map[string]string
	for i, name := range names {
		if name == "" || i >= len(match) || match[i] == "" {
			continue
		}
		if fields == nil {
			fields = make(map[string]string)
		}
		fields[name] = match[i]
	}
	return fields
}

// applyMergeFields combines each directive's source fields into its
// destination: non-empty sources joined with a single space, source
// keys removed from the final field set.
func applyMergeFields(fields map[string]string, merges []types.MergeFieldConfig) {
	if len(fields) == 0 {
		return
	}
	for _, merge := range merges {
		parts := make([]string, 0, len(merge.Sources))
		found := false
		for _, src := range merge.Sources {
			v, ok := fields[src]
			if ok {
				found = true
			}
			if v != "" {
				parts = append(parts, v)
			}
			delete(fields, src)
		}
		if found {
			fields[merge.Dest] = strings.Join(parts, " ")
		}
	}
}
