package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// stats summarizes the collection the way the integration suites inspect it.
type stats struct {
	Collection    string `json:"collection"`
	Books         int64  `json:"books"`
	CountAboveOne int64  `json:"countAboveOne"`
	TotalCount    int64  `json:"totalCount"`
	MaxCount      int    `json:"maxCount"`
	MinCount      int    `json:"minCount"`
	Authors       []any  `json:"authors"`
	WithoutAuthor int64  `json:"withoutAuthor"`
	Genres        []any  `json:"genres"`
	MaxGenres     int    `json:"maxGenres"`
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the books collection",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCollection(cmd.Context(), func(_ types.Shelf, coll types.Collection) error {
				st, err := collectStats(cmd.Context(), coll)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), st)
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Collection:       %s\n", st.Collection)
				fmt.Fprintf(w, "Books:            %d\n", st.Books)
				fmt.Fprintf(w, "Count above one:  %d\n", st.CountAboveOne)
				fmt.Fprintf(w, "Total count:      %d\n", st.TotalCount)
				fmt.Fprintf(w, "Max count:        %d\n", st.MaxCount)
				fmt.Fprintf(w, "Min count:        %d\n", st.MinCount)
				fmt.Fprintf(w, "Authors:          %s\n", joinValues(st.Authors))
				fmt.Fprintf(w, "Without author:   %d\n", st.WithoutAuthor)
				fmt.Fprintf(w, "Genres:           %s\n", joinValues(st.Genres))
				fmt.Fprintf(w, "Max genres:       %d\n", st.MaxGenres)
				return nil
			})
		},
	}
}

func collectStats(ctx context.Context, coll types.Collection) (*stats, error) {
	st := &stats{Collection: coll.Name()}
	var err error

	if st.Books, err = coll.Count(ctx, types.All()); err != nil {
		return nil, err
	}
	if st.CountAboveOne, err = coll.Count(ctx, types.Gt(types.FieldCount, 1)); err != nil {
		return nil, err
	}
	if st.TotalCount, err = coll.Sum(ctx, types.FieldCount, types.All()); err != nil {
		return nil, err
	}
	if st.MaxCount, err = extremeCount(ctx, coll, types.Desc(types.FieldCount)); err != nil {
		return nil, err
	}
	if st.MinCount, err = extremeCount(ctx, coll, types.Asc(types.FieldCount)); err != nil {
		return nil, err
	}
	if st.Authors, err = coll.Distinct(ctx, types.FieldAuthor, types.All()); err != nil {
		return nil, err
	}
	if st.WithoutAuthor, err = coll.Count(ctx, types.Missing(types.FieldAuthor)); err != nil {
		return nil, err
	}
	if st.Genres, err = coll.Distinct(ctx, types.FieldGenre, types.All()); err != nil {
		return nil, err
	}
	if st.MaxGenres, err = coll.MaxLen(ctx, types.FieldGenre, types.All()); err != nil {
		return nil, err
	}
	return st, nil
}

// extremeCount returns the count of the first book in the given order, or 0
// for an empty collection.
func extremeCount(ctx context.Context, coll types.Collection, key types.SortKey) (int, error) {
	b, err := coll.FindOne(ctx, types.Query{Sort: []types.SortKey{key}, Fields: []string{types.FieldCount}})
	if errors.Is(err, types.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Count, nil
}

func joinValues(values []any) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
