package sqlite

import (
	"fmt"
	"strings"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// whereClause translates a filter into a SQL condition over the table alias
// "b". An empty filter yields "1=1". Absent values follow document-store
// rules: only author can be absent, and an absent author never compares equal,
// greater, or less, but does satisfy "not equal".
func whereClause(f types.Filter) (string, []any, error) {
	if err := f.Validate(); err != nil {
		return "", nil, err
	}
	if len(f) == 0 {
		return "1=1", nil, nil
	}

	var conditions []string
	var args []any
	for _, c := range f {
		col := "b." + columns[c.Field]
		optional := c.Field == types.FieldAuthor

		switch c.Op {
		case types.OpEq:
			conditions = append(conditions, col+" = ?")
			args = append(args, sqlValue(c.Value))
		case types.OpNe:
			if optional {
				conditions = append(conditions, "("+col+" IS NULL OR "+col+" <> ?)")
			} else {
				conditions = append(conditions, col+" <> ?")
			}
			args = append(args, sqlValue(c.Value))
		case types.OpGt, types.OpGte, types.OpLt, types.OpLte:
			conditions = append(conditions, col+" "+comparison[c.Op]+" ?")
			args = append(args, sqlValue(c.Value))
		case types.OpExists:
			if optional {
				conditions = append(conditions, col+" IS NOT NULL")
			} else {
				conditions = append(conditions, "1=1")
			}
		case types.OpMissing:
			if optional {
				conditions = append(conditions, col+" IS NULL")
			} else {
				conditions = append(conditions, "1=0")
			}
		case types.OpContains:
			conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each("+col+") AS g WHERE g.value = ?)")
			args = append(args, c.Value)
		default:
			return "", nil, fmt.Errorf("%w: unknown operator %q", types.ErrInvalidFilter, c.Op)
		}
	}
	return strings.Join(conditions, " AND "), args, nil
}

var comparison = map[types.Op]string{
	types.OpGt:  ">",
	types.OpGte: ">=",
	types.OpLt:  "<",
	types.OpLte: "<=",
}

// sqlValue normalizes integer kinds to int64 so the driver binds them as
// INTEGER. Other values pass through.
func sqlValue(v any) any {
	if n, ok := types.ToInt64(v); ok {
		return n
	}
	return v
}

// orderClause translates sort keys. Ties and unsorted results fall back to
// insertion order.
func orderClause(keys []types.SortKey) string {
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, "b."+columns[k.Field]+" "+dir)
	}
	parts = append(parts, "b.rowid ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

// limitClause translates skip and limit. SQLite needs a LIMIT before OFFSET;
// -1 means unbounded.
func limitClause(skip, limit int64) string {
	switch {
	case limit > 0 && skip > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, skip)
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d", limit)
	case skip > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", skip)
	default:
		return ""
	}
}
