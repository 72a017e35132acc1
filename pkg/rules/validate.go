package rules

import (
	"fmt"

	"github.com/auditscope/auditscope/pkg/types"
)

var validComps = map[types.FilterComp]bool{
	types.CompEq: true,
	types.CompGt: true,
	types.CompLt: true,
	types.CompGe: true,
	types.CompLe: true,
	types.CompIn: true,
}

var orderedComps = map[types.FilterComp]bool{
	types.CompGt: true,
	types.CompLt: true,
	types.CompGe: true,
	types.CompLe: true,
}

// coreAttrs are the attribute names every system carries. Filters may
// also reference producer-specific attribute keys; those get a WARNING
// rather than a rejection since the set is open.
var coreAttrs = map[string]bool{
	types.FilterAttrSystemName:      true,
	types.FilterAttrOSFamily:        true,
	types.FilterAttrDistroFamily:    true,
	types.FilterAttrProducer:        true,
	types.FilterAttrProducerVersion: true,
	types.AttrKeyPrettyName:         true,
	types.AttrKeyKernelVersion:      true,
	types.AttrKeyHostname:           true,
	types.AttrKeyWindowsBuild:       true,
	types.AttrKeyWindowsUBR:         true,
	types.AttrKeyMacOSBuild:         true,
	types.AttrKeyMacOSVersion:       true,
}

// validateRule turns one parsed rule body into a compiled Rule. A rule
// that fails validation yields a nil Rule and exactly one ERROR
// message naming it; informational oddities come back as INFO.
func validateRule(name string, cfg ruleConfig) (*types.Rule, []types.ValidationMessage) {
	var msgs []types.ValidationMessage

	if cfg.Pattern == "" {
		return nil, append(msgs, types.ErrorMessage(name, "rule has no pattern"))
	}

	rule := &types.Rule{
		Name:       name,
		Pattern:    cfg.Pattern,
		Comment:    cfg.Comment,
		MaxResults: cfg.MaxResults,
	}

	if err := rule.Compile(); err != nil {
		return nil, append(msgs, types.ErrorMessage(name, "pattern does not compile: %v", err))
	}

	if cfg.MaxResults < 0 {
		return nil, append(msgs, types.ErrorMessage(name, "max_results must not be negative"))
	}

	for i, f := range cfg.Filters {
		sf, msg := validateFilter(name, f)
		if msg != nil {
			msg.Detail = fmt.Sprintf("filter %d: %s", i+1, msg.Detail)
			if msg.Level == types.LevelError {
				return nil, append(msgs, *msg)
			}
			msgs = append(msgs, *msg)
		}
		if sf != nil {
			rule.SystemFilters = append(rule.SystemFilters, *sf)
		}
	}

	seenDest := make(map[string]bool)
	for _, m := range cfg.MergeFields {
		mf, msg := validateMergeField(name, m)
		if msg != nil {
			return nil, append(msgs, *msg)
		}
		if seenDest[mf.Dest] {
			return nil, append(msgs, types.ErrorMessage(name, "duplicate merge destination %q", mf.Dest))
		}
		seenDest[mf.Dest] = true
		rule.MergeFields = append(rule.MergeFields, *mf)
	}

	if len(rule.FieldNames()) == 0 {
		msgs = append(msgs, types.InfoMessage(name, "pattern has no named capture groups; rule reports matched lines only"))
	}

	return rule, msgs
}

// validateFilter checks operator/value type agreement and normalizes
// the operand: scalars to strings, in-lists to string slices.
func validateFilter(rule string, f filterConfig) (*types.SystemFilter, *types.ValidationMessage) {
	if f.Attr == "" {
		msg := types.ErrorMessage(rule, "filter has no attr")
		return nil, &msg
	}

	comp := types.FilterComp(f.Comp)
	if !validComps[comp] {
		msg := types.ErrorMessage(rule, "unknown comparator %q", f.Comp)
		return nil, &msg
	}

	_, isList := listForm(f.Value)
	switch {
	case comp == types.CompIn && !isList:
		msg := types.ErrorMessage(rule, "comparator %q requires a list value", comp)
		return nil, &msg
	case orderedComps[comp] && isList:
		msg := types.ErrorMessage(rule, "comparator %q does not accept a list value", comp)
		return nil, &msg
	case comp == types.CompEq && isList:
		msg := types.ErrorMessage(rule, "comparator %q requires a scalar value", comp)
		return nil, &msg
	}

	sf := &types.SystemFilter{Attr: f.Attr, Comp: comp}
	if list, ok := listForm(f.Value); ok {
		sf.Value = list
	} else {
		sf.Value = scalarForm(f.Value)
	}

	if !coreAttrs[f.Attr] {
		msg := types.WarningMessage(rule, "attr %q is not a core attribute; the filter only matches systems whose producer sets it", f.Attr)
		return sf, &msg
	}
	return sf, nil
}

// validateMergeField requires a destination and at least two sources.
func validateMergeField(rule string, m mergeFieldConfig) (*types.MergeFieldConfig, *types.ValidationMessage) {
	if m.Dest == "" {
		msg := types.ErrorMessage(rule, "merge_fields entry has no dest")
		return nil, &msg
	}
	if len(m.Sources) < 2 {
		msg := types.ErrorMessage(rule, "merge_fields %q needs at least two sources", m.Dest)
		return nil, &msg
	}
	return &types.MergeFieldConfig{Dest: m.Dest, Sources: m.Sources}, nil
}

// listForm reports whether a YAML value is list-shaped and returns its
// normalized string slice.
func listForm(v interface{}) ([]string, bool) {
	switch val := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, scalarForm(item))
		}
		return out, true
	case []string:
		return val, true
	}
	return nil, false
}

// scalarForm normalizes a YAML scalar to its string form.
func scalarForm(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
