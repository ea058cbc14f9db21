package memory

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/typeahead/lookup"
)

func matchesAll(doc Document, filters []lookup.Expression) (bool, error) {
	for _, f := range filters {
		ok, err := evaluate(doc, f)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func evaluate(doc Document, expr lookup.Expression) (bool, error) {
	switch e := expr.(type) {
	case lookup.AndExpr:
		return matchesAll(doc, e.Exprs)
	case lookup.OrExpr:
		for _, inner := range e.Exprs {
			ok, err := evaluate(doc, inner)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case lookup.NotExpr:
		if e.Inner == nil {
			return false, errors.Wrap(lookup.ErrInvalidExpression, "NOT without operand")
		}
		ok, err := evaluate(doc, e.Inner)
		return !ok, err
	case lookup.EqExpr:
		return fieldEquals(doc, e.Field, e.Value), nil
	case lookup.NeExpr:
		return !fieldEquals(doc, e.Field, e.Value), nil
	case lookup.InExpr:
		for _, v := range e.Values {
			if fieldEquals(doc, e.Field, v) {
				return true, nil
			}
		}
		return false, nil
	case lookup.ExistsExpr:
		_, ok := doc.Fields[e.Field]
		return ok, nil
	default:
		return false, errors.Wrapf(lookup.ErrInvalidExpression, "unsupported expression %T", expr)
	}
}

// fieldEquals reports whether the field equals want. Array fields match
// when any element equals want. A missing field equals only nil.
func fieldEquals(doc Document, field string, want any) bool {
	got, ok := doc.Fields[field]
	if !ok {
		return want == nil
	}

	switch v := got.(type) {
	case []any:
		for _, item := range v {
			if equal(item, want) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if equal(item, want) {
				return true
			}
		}
		return false
	default:
		return equal(got, want)
	}
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat64(a); ok {
		if fb, ok := toFloat64(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat64(a); ok {
		if fb, ok := toFloat64(b); ok {
			return compareFloat(fa, fb)
		}
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
