package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

var operators = map[types.Op]string{
	types.OpEq:  "$eq",
	types.OpNe:  "$ne",
	types.OpGt:  "$gt",
	types.OpGte: "$gte",
	types.OpLt:  "$lt",
	types.OpLte: "$lte",
}

// filterDoc translates a filter into a query document. Several conditions are
// joined with $and so two conditions on one field never collide.
func filterDoc(f types.Filter) (bson.D, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	parts := make([]bson.D, 0, len(f))
	for _, c := range f {
		var cond any
		switch c.Op {
		case types.OpExists:
			cond = bson.D{{Key: "$exists", Value: true}}
		case types.OpMissing:
			cond = bson.D{{Key: "$exists", Value: false}}
		case types.OpContains:
			// Equality against an array field matches any element.
			cond = c.Value
		default:
			op, ok := operators[c.Op]
			if !ok {
				return nil, fmt.Errorf("%w: unknown operator %q", types.ErrInvalidFilter, c.Op)
			}
			cond = bson.D{{Key: op, Value: bsonValue(c.Field, c.Value)}}
		}
		parts = append(parts, bson.D{{Key: c.Field, Value: cond}})
	}

	switch len(parts) {
	case 0:
		return bson.D{}, nil
	case 1:
		return parts[0], nil
	}
	and := make(bson.A, len(parts))
	for i, p := range parts {
		and[i] = p
	}
	return bson.D{{Key: "$and", Value: and}}, nil
}

// bsonValue normalizes integers to int64 and turns ObjectID hex strings on
// _id back into ObjectIDs.
func bsonValue(field string, v any) any {
	if field == types.FieldID {
		if s, ok := v.(string); ok {
			if oid, err := primitive.ObjectIDFromHex(s); err == nil {
				return oid
			}
		}
		return v
	}
	if n, ok := types.ToInt64(v); ok {
		return n
	}
	return v
}

// sortDoc translates sort keys. Ties break on _id, which follows insertion
// order for generated ObjectIDs.
func sortDoc(keys []types.SortKey) bson.D {
	if len(keys) == 0 {
		return nil
	}
	doc := make(bson.D, 0, len(keys)+1)
	byID := false
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: k.Field, Value: dir})
		byID = byID || k.Field == types.FieldID
	}
	if !byID {
		doc = append(doc, bson.E{Key: types.FieldID, Value: 1})
	}
	return doc
}

// projectionDoc includes the named fields; _id comes back regardless.
func projectionDoc(fields []string) bson.D {
	if len(fields) == 0 {
		return nil
	}
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		doc = append(doc, bson.E{Key: f, Value: 1})
	}
	return doc
}

var updateOperators = map[types.UpdateKind]string{
	types.UpdateInc:      "$inc",
	types.UpdateAddToSet: "$addToSet",
	types.UpdateSet:      "$set",
	types.UpdateUnset:    "$unset",
}

// updateDoc translates an update into an update document, grouping fields
// under their operator in first-seen order. Setting author to "" unsets it,
// since an empty author means no author.
func updateDoc(u types.Update) (bson.D, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	var doc bson.D
	index := make(map[string]int)
	for _, op := range u {
		kind, value := op.Kind, op.Value
		switch {
		case kind == types.UpdateSet && op.Field == types.FieldAuthor && value == "":
			kind = types.UpdateUnset
		case kind == types.UpdateInc, kind == types.UpdateSet:
			value = bsonValue(op.Field, value)
		}
		if kind == types.UpdateUnset {
			value = ""
		}

		name := updateOperators[kind]
		i, ok := index[name]
		if !ok {
			i = len(doc)
			index[name] = i
			doc = append(doc, bson.E{Key: name, Value: bson.D{}})
		}
		doc[i].Value = append(doc[i].Value.(bson.D), bson.E{Key: op.Field, Value: value})
	}
	return doc, nil
}

// bookDoc builds the document stored for a typed record. A missing ID gets a
// new ObjectID; an absent author is left out.
func bookDoc(b *types.Book) bson.D {
	var id any = primitive.NewObjectID()
	if b.ID != "" {
		id = bsonValue(types.FieldID, b.ID)
	}
	genre := b.Genre
	if genre == nil {
		genre = []string{}
	}

	doc := bson.D{{Key: types.FieldID, Value: id}, {Key: types.FieldName, Value: b.Name}}
	if b.Author != "" {
		doc = append(doc, bson.E{Key: types.FieldAuthor, Value: b.Author})
	}
	return append(doc,
		bson.E{Key: types.FieldCount, Value: int64(b.Count)},
		bson.E{Key: types.FieldGenre, Value: genre},
		bson.E{Key: types.FieldYear, Value: int64(b.Year)},
	)
}
