package screen

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/granme/caprisystem/internal/listview"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts csv or json in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (valid: csv, json)", s)
	}
}

// Export writes every record of the current view, ignoring pagination.
func (p *page[T]) Export(w io.Writer, format Format) error {
	records := listview.Derive(p.engine.Records(), p.engine.Descriptor(), p.engine.State())
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", p.kind.Name, err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(p.kind.Headers()); err != nil {
			return err
		}
		for _, r := range records {
			if err := cw.Write(p.kind.Row(r, p.rel)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
