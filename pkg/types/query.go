package types

import (
	"fmt"
	"math"
)

// Op is a filter comparison operator.
type Op string

// Supported filter operators. Contains matches one element of an array field.
const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpExists   Op = "exists"
	OpMissing  Op = "missing"
	OpContains Op = "contains"
)

// Condition compares one field against a value.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions. An empty Filter matches every record.
type Filter []Condition

// All returns the filter that matches every record.
func All() Filter { return nil }

// Where returns a filter holding a single condition.
func Where(field string, op Op, value any) Filter {
	return Filter{{Field: field, Op: op, Value: value}}
}

// And returns a copy of f with one more condition appended.
func (f Filter) And(field string, op Op, value any) Filter {
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, Condition{Field: field, Op: op, Value: value})
}

func Eq(field string, value any) Filter  { return Where(field, OpEq, value) }
func Ne(field string, value any) Filter  { return Where(field, OpNe, value) }
func Gt(field string, value any) Filter  { return Where(field, OpGt, value) }
func Gte(field string, value any) Filter { return Where(field, OpGte, value) }
func Lt(field string, value any) Filter  { return Where(field, OpLt, value) }
func Lte(field string, value any) Filter { return Where(field, OpLte, value) }
func Exists(field string) Filter         { return Where(field, OpExists, nil) }
func Missing(field string) Filter        { return Where(field, OpMissing, nil) }
func Contains(field, tag string) Filter  { return Where(field, OpContains, tag) }

// Validate checks every condition of the filter.
func (f Filter) Validate() error {
	for _, c := range f {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the field is known and that the operator and value
// fit the field's type.
func (c Condition) Validate() error {
	kind, ok := fieldKinds[c.Field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidField, c.Field)
	}

	switch c.Op {
	case OpExists, OpMissing:
		return nil
	case OpContains:
		if kind != kindTags {
			return fmt.Errorf("%w: contains on non-array field %q", ErrInvalidFilter, c.Field)
		}
		if _, ok := c.Value.(string); !ok {
			return fmt.Errorf("%w: contains needs a string, got %T", ErrInvalidFilter, c.Value)
		}
		return nil
	case OpEq, OpNe:
		return checkScalar(c.Field, kind, c.Value)
	case OpGt, OpGte, OpLt, OpLte:
		if kind != kindInt {
			return fmt.Errorf("%w: %s on non-numeric field %q", ErrInvalidFilter, c.Op, c.Field)
		}
		return checkScalar(c.Field, kind, c.Value)
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, c.Op)
	}
}

// checkScalar validates a comparison value against a field kind.
func checkScalar(field string, kind fieldKind, value any) error {
	switch kind {
	case kindID, kindText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %q needs a string, got %T", ErrInvalidFilter, field, value)
		}
	case kindInt:
		if _, ok := ToInt64(value); !ok {
			return fmt.Errorf("%w: %q needs an integer, got %T", ErrInvalidFilter, field, value)
		}
	case kindTags:
		return fmt.Errorf("%w: use contains for array field %q", ErrInvalidFilter, field)
	}
	return nil
}

// SortKey orders results by one scalar field.
type SortKey struct {
	Field string
	Desc  bool
}

// Asc sorts by field in ascending order.
func Asc(field string) SortKey { return SortKey{Field: field} }

// Desc sorts by field in descending order.
func Desc(field string) SortKey { return SortKey{Field: field, Desc: true} }

// Query selects, orders, pages, and projects records.
// Fields is a projection; ID is always returned. Zero Limit means no limit.
type Query struct {
	Filter Filter
	Sort   []SortKey
	Skip   int64
	Limit  int64
	Fields []string
}

// Validate checks the filter, sort keys, paging, and projection.
func (q Query) Validate() error {
	if err := q.Filter.Validate(); err != nil {
		return err
	}
	for _, s := range q.Sort {
		kind, ok := fieldKinds[s.Field]
		if !ok || kind == kindTags {
			return fmt.Errorf("%w: cannot sort by %q", ErrInvalidField, s.Field)
		}
	}
	if q.Skip < 0 || q.Limit < 0 {
		return fmt.Errorf("%w: negative skip or limit", ErrInvalidFilter)
	}
	for _, f := range q.Fields {
		if !KnownField(f) {
			return fmt.Errorf("%w: %q", ErrInvalidField, f)
		}
	}
	return nil
}

// ToInt64 converts the integer kinds produced by Go code, JSON decoding, and
// BSON decoding to int64. Floats are accepted only when they are whole and
// within the int64 range.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || n < -(1<<63) || n >= 1<<63 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
