// Package classify detects the identity of the host a report file was
// collected from: producer tool and version, OS family, and (for
// Linux) distribution family.
//
// Detection is table-driven: ordered lists of (pattern, outcome) rows
// evaluated first-match-wins against a bounded prefix of the file.
// Collectors front-load their signatures, so the whole file is never
// read for classification.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/auditscope/auditscope/pkg/filesystem"
	"github.com/auditscope/auditscope/pkg/logging"
	"github.com/auditscope/auditscope/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultPrefixLines bounds how much of a file the classifier reads.
const DefaultPrefixLines = 50

// Classifier classifies report files into SystemRecords.
type Classifier struct {
	fs     filesystem.FS
	logger zerolog.Logger

	// PrefixLines is the number of leading lines inspected per file
	PrefixLines int
}

// New creates a classifier reading through the given filesystem.
func New(fsys filesystem.FS) *Classifier {
	return &Classifier{
		fs:          fsys,
		logger:      logging.GetLogger("classify"),
		PrefixLines: DefaultPrefixLines,
	}
}

// Classify builds the SystemRecord for one report file. The three
// stages run in order: producer signature, producer-specific OS
// patterns, then (for Linux) the distro table. An unreadable or
// undecodable file returns an error; callers skip and report it.
func (c *Classifier) Classify(path string) (*types.SystemRecord, error) {
	source, err := filesystem.Open(c.fs, path)
	if err != nil {
		return nil, err
	}
	return c.classifySource(path, source), nil
}

// ClassifySource classifies an already opened content source.
func (c *Classifier) ClassifySource(path string, source filesystem.ContentSource) *types.SystemRecord {
	return c.classifySource(path, source)
}

func (c *Classifier) classifySource(path string, source filesystem.ContentSource) *types.SystemRecord {
	prefix := source.Prefix(c.PrefixLines)

	record := &types.SystemRecord{
		SystemName: systemName(path),
		Path:       path,
		OSFamily:   types.OSUndefined,
		Producer:   types.ProducerOther,
		Attributes: make(map[string]string),
	}

	c.detectProducer(record, prefix)
	c.detectOS(record, prefix)
	if record.OSFamily == types.OSLinux {
		record.DistroFamily = c.classifyDistro(record, prefix)
	}

	c.logger.Debug().
		Str("system", record.SystemName).
		Str("producer", string(record.Producer)).
		Str("osFamily", string(record.OSFamily)).
		Str("distroFamily", string(record.DistroFamily)).
		Str("version", record.ProducerVersion).
		Msg("Classified report file")

	return record
}

// detectProducer runs the producer signature table; first match wins.
func (c *Classifier) detectProducer(record *types.SystemRecord, prefix []string) {
	for _, sig := range producerSignatures {
		for _, line := range prefix {
			m := sig.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			record.Producer = sig.producer
			if idx := sig.re.SubexpIndex("version"); idx > 0 && idx < len(m) {
				record.ProducerVersion = m[idx]
			}
			return
		}
	}
}

// detectOS applies the producer-specific OS patterns. Every matching
// pattern contributes its named captures to the attribute map; the
// first family-bearing match decides the OS family.
func (c *Classifier) detectOS(record *types.SystemRecord, prefix []string) {
	patterns := osPatterns[record.Producer]
	for _, p := range patterns {
		for _, line := range prefix {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			for i, name := range p.re.SubexpNames() {
				if name == "" || i >= len(m) || m[i] == "" {
					continue
				}
				if _, exists := record.Attributes[name]; !exists {
					record.Attributes[name] = strings.TrimSpace(m[i])
				}
			}
			if p.family != "" && record.OSFamily == types.OSUndefined {
				record.OSFamily = p.family
			}
			break
		}
	}
}

// classifyDistro matches the distro signature table against the pretty
// name and the os-release style lines of the prefix.
func (c *Classifier) classifyDistro(record *types.SystemRecord, prefix []string) types.DistroFamily {
	candidates := make([]string, 0, len(prefix)+1)
	if pretty, ok := record.Attributes[types.AttrKeyPrettyName]; ok {
		candidates = append(candidates, pretty)
	}
	candidates = append(candidates, prefix...)

	for _, sig := range distroSignatures {
		for _, line := range candidates {
			if sig.re.MatchString(line) {
				return sig.family
			}
		}
	}
	return types.DistroOther
}

// ClassifyAll classifies a population of report files with the
// skip-and-report policy: files that cannot be read or decoded are
// dropped and reported as warnings, never failing the whole run.
func (c *Classifier) ClassifyAll(paths []string) ([]*types.SystemRecord, []types.ValidationMessage) {
	var records []*types.SystemRecord
	var warnings []types.ValidationMessage

	for _, path := range paths {
		record, err := c.Classify(path)
		if err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable report file")
			warnings = append(warnings, types.WarningMessage("", "skipped %s: %v", path, err))
			continue
		}
		records = append(records, record)
	}

	c.logger.Info().
		Int("classified", len(records)).
		Int("skipped", len(warnings)).
		Msg("Classified report files")

	return records, warnings
}

// systemName derives the system name from the report file name.
func systemName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
