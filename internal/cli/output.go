package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lizasixsixsix/m1001/pkg/types"
)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeBooks prints books as JSON or as an aligned table.
func writeBooks(w io.Writer, books []*types.Book) error {
	if flags.jsonMode {
		return writeJSON(w, books)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAUTHOR\tCOUNT\tGENRE\tYEAR")
	for _, b := range books {
		author := b.Author
		if author == "" {
			author = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\n",
			b.ID, b.Name, author, b.Count, strings.Join(b.Genre, ","), b.Year)
	}
	return tw.Flush()
}
