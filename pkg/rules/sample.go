package rules

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// sampleLibrary is the starter rule library emitted by `rules gen`.
// yaml struct tags mirror the koanf schema the loader reads back.
type sampleLibrary struct {
	Global       sampleGlobal          `yaml:"global"`
	IncludeRules []string              `yaml:"include_rules,omitempty"`
	Rules        map[string]sampleRule `yaml:"rules"`
}

type sampleGlobal struct {
	MaxResults int `yaml:"max_results"`
}

type sampleRule struct {
	Pattern     string             `yaml:"pattern"`
	Comment     string             `yaml:"comment,omitempty"`
	Filters     []sampleFilter     `yaml:"filters,omitempty"`
	MergeFields []sampleMergeField `yaml:"merge_fields,omitempty"`
	MaxResults  int                `yaml:"max_results,omitempty"`
}

type sampleFilter struct {
	Attr  string      `yaml:"attr"`
	Comp  string      `yaml:"comp"`
	Value interface{} `yaml:"value"`
}

type sampleMergeField struct {
	Dest    string   `yaml:"dest"`
	Sources []string `yaml:"sources"`
}

const sampleHeader = `# auditscope rule library
#
# Each rule scans every applicable report file line by line. Named
# capture groups in the pattern become extracted output fields.
# Filters scope a rule to matching systems and are combined with AND.
# Files named by include_* keys are merged into this library.

`

// SampleConfig renders a commented starter rule library.
func SampleConfig() ([]byte, error) {
	library := sampleLibrary{
		Global: sampleGlobal{MaxResults: 500},
		Rules: map[string]sampleRule{
			"kernel-version": {
				Pattern: `Linux version (?P<version>\S+) \((?P<builder>[^)]+)\)`,
				Comment: "Running kernel build line",
				Filters: []sampleFilter{
					{Attr: "os_family", Comp: "eq", Value: "Linux"},
				},
				MergeFields: []sampleMergeField{
					{Dest: "kernel", Sources: []string{"version", "builder"}},
				},
			},
			"ssh-permit-root": {
				Pattern: `(?i)^\s*PermitRootLogin\s+(?P<value>\S+)`,
				Comment: "sshd_config root login policy",
				Filters: []sampleFilter{
					{Attr: "os_family", Comp: "in", Value: []string{"Linux", "Darwin"}},
				},
			},
			"windows-defender-state": {
				Pattern: `(?i)AntivirusEnabled\s*:\s*(?P<enabled>\w+)`,
				Comment: "Defender service state from the audit snapshot",
				Filters: []sampleFilter{
					{Attr: "os_family", Comp: "eq", Value: "Windows"},
				},
				MaxResults: 10,
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(sampleHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(library); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
