package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// MapReduceResult is one output document of an inline map-reduce: the key
// emitted by the map function and the reduced value.
type MapReduceResult struct {
	ID    any `bson:"_id"`
	Value any `bson:"value"`
}

// Int64 returns Value as an integer. The server reduces numbers in
// JavaScript, so sums usually come back as whole doubles.
func (r MapReduceResult) Int64() (int64, bool) {
	return types.ToInt64(r.Value)
}

// MapReduce runs the mapReduce command with inline output. mapJS and reduceJS
// are JavaScript function sources, as the server expects them.
func (c *Collection) MapReduce(ctx context.Context, mapJS, reduceJS string) ([]MapReduceResult, error) {
	if mapJS == "" || reduceJS == "" {
		return nil, fmt.Errorf("map-reduce on %s: map and reduce functions are required", c.name)
	}

	b := c.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrShelfDetached
	}

	cmd := bson.D{
		{Key: "mapReduce", Value: c.name},
		{Key: "map", Value: primitive.JavaScript(mapJS)},
		{Key: "reduce", Value: primitive.JavaScript(reduceJS)},
		{Key: "out", Value: bson.D{{Key: "inline", Value: 1}}},
	}

	var out struct {
		Results []MapReduceResult `bson:"results"`
	}
	if err := b.db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return nil, fmt.Errorf("map-reduce on %s: %w", c.name, err)
	}
	for i := range out.Results {
		out.Results[i].ID = normalizeValue(out.Results[i].ID)
		out.Results[i].Value = normalizeValue(out.Results[i].Value)
	}
	if out.Results == nil {
		out.Results = []MapReduceResult{}
	}
	return out.Results, nil
}
