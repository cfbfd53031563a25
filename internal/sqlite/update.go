package sqlite

import (
	"slices"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// applyUpdate applies a validated update to b in place and reports whether
// any field actually changed. A second identical addToSet changes nothing.
func applyUpdate(b *types.Book, u types.Update) bool {
	changed := false
	for _, op := range u {
		switch op.Kind {
		case types.UpdateInc:
			by, _ := types.ToInt64(op.Value)
			if by == 0 {
				continue
			}
			switch op.Field {
			case types.FieldCount:
				b.Count += int(by)
			case types.FieldYear:
				b.Year += int(by)
			}
			changed = true

		case types.UpdateAddToSet:
			tag := op.Value.(string)
			if b.HasGenre(tag) {
				continue
			}
			b.Genre = append(b.Genre, tag)
			changed = true

		case types.UpdateSet:
			changed = setField(b, op.Field, op.Value) || changed

		case types.UpdateUnset:
			if b.Author != "" {
				b.Author = ""
				changed = true
			}
		}
	}
	return changed
}

// setField assigns value to the named field and reports whether it differed.
func setField(b *types.Book, field string, value any) bool {
	switch field {
	case types.FieldName:
		v := value.(string)
		if b.Name == v {
			return false
		}
		b.Name = v
	case types.FieldAuthor:
		v := value.(string)
		if b.Author == v {
			return false
		}
		b.Author = v
	case types.FieldCount:
		n, _ := types.ToInt64(value)
		if int64(b.Count) == n {
			return false
		}
		b.Count = int(n)
	case types.FieldYear:
		n, _ := types.ToInt64(value)
		if int64(b.Year) == n {
			return false
		}
		b.Year = int(n)
	case types.FieldGenre:
		v := value.([]string)
		if slices.Equal(b.Genre, v) {
			return false
		}
		b.Genre = slices.Clone(v)
	default:
		return false
	}
	return true
}
