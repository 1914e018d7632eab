package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/granme/caprisystem/internal/screen"
	"github.com/granme/caprisystem/pkg/types"
)

var validResourcesStr = strings.Join(types.StandardResourceNames, ", ")

// resourceArgs validates the leading <resource> argument and the expected
// number of further arguments.
func resourceArgs(extra int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1+extra {
			return usagef("expected %d argument(s), got %d", 1+extra, len(args))
		}
		return nil
	}
}

func openScreen(resource string) (screen.Screen, error) {
	sc, err := app.screens.Get(resource)
	if err != nil {
		return nil, fmt.Errorf("unknown resource %q (valid: %s): %w", resource, validResourcesStr, types.ErrUnknownResource)
	}
	return sc, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q: %w", s, types.ErrInvalidID)
	}
	return id, nil
}

// parseAssignments splits key=value pairs.
func parseAssignments(pairs []string) ([]screen.Assignment, error) {
	out := make([]screen.Assignment, 0, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, usagef("invalid assignment %q (expected field=value)", p)
		}
		out = append(out, screen.Assignment{Field: strings.TrimSpace(k), Value: v})
	}
	return out, nil
}

// queryFlags are the view options shared by list and export.
type queryFlags struct {
	search  string
	filters []string
	sort    string
	desc    bool
	page    int
}

func (q *queryFlags) register(f *pflag.FlagSet, paged bool) {
	f.StringVarP(&q.search, "search", "s", "", "search term")
	f.StringArrayVarP(&q.filters, "filter", "f", nil, "filter as dimension=value (repeatable)")
	f.StringVar(&q.sort, "sort", "", "sort field")
	f.BoolVar(&q.desc, "desc", false, "sort descending")
	if paged {
		f.IntVarP(&q.page, "page", "p", 1, "page number")
	}
}

func (q *queryFlags) query() (screen.Query, error) {
	out := screen.Query{Search: q.search, Sort: q.sort, Desc: q.desc, Page: q.page}
	if len(q.filters) > 0 {
		out.Filters = make(map[string][]string)
	}
	for _, f := range q.filters {
		dim, val, ok := strings.Cut(f, "=")
		if !ok || dim == "" {
			return out, usagef("invalid filter %q (expected dimension=value)", f)
		}
		out.Filters[dim] = append(out.Filters[dim], val)
	}
	return out, nil
}

func newListCmd() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List records with search, filters, sort and paging",
		Long: `list shows one page of a collection. Filters on the same dimension match
any of their values; filters on different dimensions must all match.

Valid resources: ` + validResourcesStr + `

Example:
  capri list goats --search saanen --filter gender=FEMALE --sort weight --desc
  capri list sales --filter payment_status=pendiente --page 2`,
		Args:        resourceArgs(0),
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := q.query()
			if err != nil {
				return err
			}
			sc, err := openScreen(args[0])
			if err != nil {
				return err
			}
			if _, err := app.screens.Open(cmd.Context(), sc.Name()); err != nil {
				return err
			}
			t, err := sc.Query(query)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), tableJSON{
					Resource:   t.Resource,
					Page:       t.Page,
					TotalPages: t.TotalPages,
					Total:      t.Total,
					Records:    t.Records,
				})
			}
			return printTable(cmd.OutOrStdout(), t)
		},
	}
	q.register(cmd.Flags(), true)
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "get <resource> <id>",
		Short:       "Show one record",
		Args:        resourceArgs(1),
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := openScreen(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			rec, err := sc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newCreateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "create <resource> --set field=value...",
		Short: "Create a record",
		Long: `create starts from the defaults of the resource, applies every --set and
submits the record. Values are read as JSON when possible, so numbers stay
numbers; anything else is taken as text.

Example:
  capri create goats --set goat_id=CAP010 --set name=Nieve --set breed=Saanen --set birthDate=2024-01-15`,
		Args:        resourceArgs(0),
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			sc, err := openScreen(args[0])
			if err != nil {
				return err
			}
			rec, err := sc.Create(cmd.Context(), fields)
			if err != nil {
				return err
			}
			return printWritten(cmd.OutOrStdout(), "Creado", sc, rec)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value (repeatable)")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:         "update <resource> <id> --set field=value...",
		Short:       "Edit a record",
		Long:        "update edits a copy of the stored record and submits it. Business codes such as\ngoat_id cannot be changed.",
		Args:        resourceArgs(1),
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				return usagef("nothing to update, pass at least one --set")
			}
			sc, err := openScreen(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			rec, err := sc.Update(cmd.Context(), id, fields)
			if err != nil {
				return err
			}
			return printWritten(cmd.OutOrStdout(), "Actualizado", sc, rec)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value (repeatable)")
	return cmd
}

func printWritten(w io.Writer, verb string, sc screen.Screen, rec any) error {
	if flags.jsonMode {
		return printJSON(w, rec)
	}
	if r, ok := rec.(types.Record); ok {
		_, err := fmt.Fprintf(w, "%s %s %d\n", verb, sc.Singular(), r.RecordID())
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s\n", verb, sc.Singular())
	return err
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "delete <resource> <id>",
		Short:       "Delete a record",
		Args:        resourceArgs(1),
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := openScreen(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := sc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if !flags.jsonMode {
				fmt.Fprintf(cmd.OutOrStdout(), "Eliminado %s %d\n", sc.Singular(), id)
			}
			return nil
		},
	}
}

func newFacetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "facets <resource>",
		Short:       "Show the values each filter dimension offers",
		Args:        resourceArgs(0),
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := openScreen(args[0])
			if err != nil {
				return err
			}
			if err := sc.Load(cmd.Context()); err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), sc.Facets())
			}
			return printFacets(cmd.OutOrStdout(), sc.Facets())
		},
	}
}

func newExportCmd() *cobra.Command {
	var q queryFlags
	var format, output string
	cmd := &cobra.Command{
		Use:         "export <resource>",
		Short:       "Export every record matching the search and filters",
		Args:        resourceArgs(0),
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := screen.ParseFormat(format)
			if err != nil {
				return usagef("%v", err)
			}
			query, err := q.query()
			if err != nil {
				return err
			}
			sc, err := openScreen(args[0])
			if err != nil {
				return err
			}
			if _, err := app.screens.Open(cmd.Context(), sc.Name()); err != nil {
				return err
			}
			if _, err := sc.Query(query); err != nil {
				return err
			}

			if output == "" || output == "-" {
				return sc.Export(cmd.OutOrStdout(), f)
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := sc.Export(file, f); err != nil {
				file.Close()
				return fmt.Errorf("export %s: %w", sc.Name(), err)
			}
			return file.Close()
		},
	}
	q.register(cmd.Flags(), false)
	cmd.Flags().StringVar(&format, "format", string(screen.FormatCSV), "csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}
