package types

import "regexp"

// Core filter attribute names. Any other attr is looked up in the
// system's producer-specific attribute map.
const (
	FilterAttrSystemName      = "system_name"
	FilterAttrOSFamily        = "os_family"
	FilterAttrDistroFamily    = "distro_family"
	FilterAttrProducer        = "producer"
	FilterAttrProducerVersion = "producer_version"
)

// FilterComp is a filter comparison operator.
type FilterComp string

const (
	CompEq FilterComp = "eq"
	CompGt FilterComp = "gt"
	CompLt FilterComp = "lt"
	CompGe FilterComp = "ge"
	CompLe FilterComp = "le"
	CompIn FilterComp = "in"
)

// SystemFilter is one applicability predicate over a system attribute.
// A rule's filters are combined with logical AND.
type SystemFilter struct {
	// Attr is the system attribute the filter tests
	Attr string

	// Comp is the comparison operator
	Comp FilterComp

	// Value is the comparison operand: a string for scalar operators,
	// a []string for CompIn. Normalized at load time.
	Value interface{}
}

// MergeFieldConfig combines two or more extracted source fields into a
// single destination field after extraction.
type MergeFieldConfig struct {
	// Dest is the name of the combined output field
	Dest string

	// Sources are the extracted fields to combine, in order; at least two
	Sources []string
}

// Rule is one named search rule: a regular expression scanned against
// report files, scoped by system filters. Rules are immutable during a
// run and safe to share across workers.
type Rule struct {
	// Name is the unique rule key
	Name string

	// Pattern is the regular expression source; capture groups named in
	// the pattern become extracted fields
	Pattern string

	// Comment is an operator note carried through to output
	Comment string

	// SystemFilters scope the rule to applicable systems (AND)
	SystemFilters []SystemFilter

	// MergeFields are applied to extracted fields after each match
	MergeFields []MergeFieldConfig

	// MaxResults caps matches per file; 0 means unlimited
	MaxResults int

	compiled *regexp.Regexp
}

// Compile compiles the rule's pattern and caches the result. It is
// called once at load time; scanning reuses the compiled pattern.
func (r *Rule) Compile() error {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return err
	}
	r.compiled = re
	return nil
}

// Compiled returns the compiled pattern, or nil if Compile was never
// called.
func (r *Rule) Compiled() *regexp.Regexp {
	return r.compiled
}

// FieldNames returns the named capture groups of the compiled pattern.
func (r *Rule) FieldNames() []string {
	if r.compiled == nil {
		return nil
	}
	var names []string
	for _, n := range r.compiled.SubexpNames() {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// GlobalConfig holds default rule settings merged into every rule at
// load time. Rule-local settings win; global filters are appended to
// each rule's filter list (preserving AND semantics).
type GlobalConfig struct {
	SystemFilters []SystemFilter
	MergeFields   []MergeFieldConfig
	MaxResults    int
}
