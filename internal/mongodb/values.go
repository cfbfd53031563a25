package mongodb

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// normalizeValues maps driver values to the plain Go values every backend
// returns, drops nulls, and sorts the result.
func normalizeValues(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		out = append(out, normalizeValue(v))
	}
	slices.SortFunc(out, compareValues)
	return out
}

// normalizeValue widens int32 to int64, turns whole doubles into int64, and
// renders ObjectIDs as hex.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case primitive.ObjectID:
		return n.Hex()
	default:
		return v
	}
}

// compareValues orders numbers before strings, then by value.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case int64:
		return cmp.Compare(x, b.(int64))
	case float64:
		return cmp.Compare(x, b.(float64))
	case string:
		return cmp.Compare(x, b.(string))
	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func rank(v any) int {
	switch v.(type) {
	case int64:
		return 0
	case float64:
		return 1
	case string:
		return 2
	default:
		return 3
	}
}

// idString renders an inserted ID the way records decode it.
func idString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
