package types

import "fmt"

// UpdateKind names an update operator.
type UpdateKind string

// Supported update operators.
const (
	UpdateInc      UpdateKind = "inc"
	UpdateAddToSet UpdateKind = "addToSet"
	UpdateSet      UpdateKind = "set"
	UpdateUnset    UpdateKind = "unset"
)

// UpdateOp modifies one field of every matched record.
type UpdateOp struct {
	Kind  UpdateKind
	Field string
	Value any
}

// Update is an ordered list of field modifications applied together.
type Update []UpdateOp

// UpdateResult reports how many records matched the filter and how many
// actually changed.
type UpdateResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// Inc adds by to a numeric field.
func Inc(field string, by int) Update { return Update{}.Inc(field, by) }

// AddToSet appends tag to an array field unless it is already present.
func AddToSet(field, tag string) Update { return Update{}.AddToSet(field, tag) }

// Set replaces a field's value.
func Set(field string, value any) Update { return Update{}.Set(field, value) }

// Unset removes an optional field.
func Unset(field string) Update { return Update{}.Unset(field) }

func (u Update) Inc(field string, by int) Update {
	return u.with(UpdateOp{Kind: UpdateInc, Field: field, Value: by})
}

func (u Update) AddToSet(field, tag string) Update {
	return u.with(UpdateOp{Kind: UpdateAddToSet, Field: field, Value: tag})
}

func (u Update) Set(field string, value any) Update {
	return u.with(UpdateOp{Kind: UpdateSet, Field: field, Value: value})
}

func (u Update) Unset(field string) Update {
	return u.with(UpdateOp{Kind: UpdateUnset, Field: field})
}

func (u Update) with(op UpdateOp) Update {
	out := make(Update, len(u), len(u)+1)
	copy(out, u)
	return append(out, op)
}

// Validate checks that the update is non-empty, touches each field once,
// never touches the ID, and that each operator fits its field.
func (u Update) Validate() error {
	if len(u) == 0 {
		return fmt.Errorf("%w: empty update", ErrInvalidUpdate)
	}
	seen := make(map[string]bool, len(u))
	for _, op := range u {
		kind, ok := fieldKinds[op.Field]
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidField, op.Field)
		}
		if kind == kindID {
			return fmt.Errorf("%w: %q is immutable", ErrInvalidUpdate, op.Field)
		}
		if seen[op.Field] {
			return fmt.Errorf("%w: %q updated twice", ErrInvalidUpdate, op.Field)
		}
		seen[op.Field] = true

		if err := op.validate(kind); err != nil {
			return err
		}
	}
	return nil
}

func (op UpdateOp) validate(kind fieldKind) error {
	switch op.Kind {
	case UpdateInc:
		if kind != kindInt {
			return fmt.Errorf("%w: inc on non-numeric field %q", ErrInvalidUpdate, op.Field)
		}
		if _, ok := ToInt64(op.Value); !ok {
			return fmt.Errorf("%w: inc needs an integer, got %T", ErrInvalidUpdate, op.Value)
		}
	case UpdateAddToSet:
		if kind != kindTags {
			return fmt.Errorf("%w: addToSet on non-array field %q", ErrInvalidUpdate, op.Field)
		}
		if _, ok := op.Value.(string); !ok {
			return fmt.Errorf("%w: addToSet needs a string, got %T", ErrInvalidUpdate, op.Value)
		}
	case UpdateSet:
		switch kind {
		case kindText:
			if _, ok := op.Value.(string); !ok {
				return fmt.Errorf("%w: %q needs a string, got %T", ErrInvalidUpdate, op.Field, op.Value)
			}
		case kindInt:
			if _, ok := ToInt64(op.Value); !ok {
				return fmt.Errorf("%w: %q needs an integer, got %T", ErrInvalidUpdate, op.Field, op.Value)
			}
		case kindTags:
			if _, ok := op.Value.([]string); !ok {
				return fmt.Errorf("%w: %q needs []string, got %T", ErrInvalidUpdate, op.Field, op.Value)
			}
		}
	case UpdateUnset:
		if op.Field != FieldAuthor {
			return fmt.Errorf("%w: only %q may be unset", ErrInvalidUpdate, FieldAuthor)
		}
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidUpdate, op.Kind)
	}
	return nil
}
