// Package filters decides whether a rule applies to a classified
// system. All of a rule's filters are combined with logical AND; an
// empty filter list applies to every system.
package filters

import (
	"fmt"
	"strings"

	"github.com/auditscope/auditscope/pkg/types"
)

// Applies reports whether every filter in the list matches the system.
// A filter referencing an attribute the system does not carry evaluates
// to false, which short-circuits the whole conjunction.
func Applies(sys *types.SystemRecord, filterList []types.SystemFilter) bool {
	for _, f := range filterList {
		if !matches(sys, f) {
			return false
		}
	}
	return true
}

func matches(sys *types.SystemRecord, f types.SystemFilter) bool {
	actual, ok := sys.Attribute(f.Attr)
	if !ok {
		return false
	}

	switch f.Comp {
	case types.CompEq:
		return actual == scalarValue(f.Value)
	case types.CompIn:
		for _, candidate := range listValue(f.Value) {
			if actual == candidate {
				return true
			}
		}
		return false
	case types.CompGt, types.CompLt, types.CompGe, types.CompLe:
		return ordered(f.Comp, compare(f.Attr, actual, scalarValue(f.Value)))
	}
	return false
}

// compare orders two attribute values. producer_version uses dotted
// component semantics; everything else ordinary string ordering.
func compare(attr, actual, expected string) int {
	if attr == types.FilterAttrProducerVersion {
		return CompareVersions(actual, expected)
	}
	return strings.Compare(actual, expected)
}

func ordered(comp types.FilterComp, c int) bool {
	switch comp {
	case types.CompGt:
		return c > 0
	case types.CompLt:
		return c < 0
	case types.CompGe:
		return c >= 0
	case types.CompLe:
		return c <= 0
	}
	return false
}

// scalarValue normalizes a filter operand to its string form. The
// loader stores validated scalars as strings already; this guards
// against filters built directly in code.
func scalarValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return stringify(val)
	}
}

// listValue normalizes a CompIn operand to a string slice.
func listValue(v interface{}) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringify(item))
		}
		return out
	}
	return nil
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
