package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/granme/caprisystem/internal/screen"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printTable writes a page as aligned columns followed by a page footer.
func printTable(w io.Writer, t screen.Table) error {
	if t.Total == 0 {
		_, err := fmt.Fprintln(w, "No hay registros.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nPágina %d de %d (%d registros)\n", t.Page, t.TotalPages, t.Total)
	return err
}

// tableJSON is the --json form of a page.
type tableJSON struct {
	Resource   string `json:"resource"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Total      int    `json:"total"`
	Records    []any  `json:"records"`
}

func printFacets(w io.Writer, facets map[string][]string) error {
	dims := make([]string, 0, len(facets))
	for d := range facets {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range dims {
		fmt.Fprintf(tw, "%s\t%s\n", d, strings.Join(facets[d], ", "))
	}
	return tw.Flush()
}
