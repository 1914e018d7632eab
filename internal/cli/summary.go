package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/granme/caprisystem/internal/screen"
	"github.com/granme/caprisystem/pkg/types"
)

// summaryResources are the totals shown on the dashboard, in display order.
var summaryResources = []string{
	types.ResourceUsers,
	types.ResourceSuppliers,
	types.ResourceStaff,
	types.ResourceProducts,
}

type summaryLine struct {
	Resource string `json:"resource"`
	Label    string `json:"label"`
	Total    int    `json:"total"`
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "summary",
		Short:       "Show record totals for users, suppliers, staff and products",
		Args:        cobra.NoArgs,
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.screens.LoadAll(cmd.Context(), summaryResources...); err != nil {
				return err
			}
			lines := make([]summaryLine, 0, len(summaryResources))
			for _, name := range summaryResources {
				sc, err := app.screens.Get(name)
				if err != nil {
					return err
				}
				t, err := sc.Query(screen.Query{})
				if err != nil {
					return err
				}
				lines = append(lines, summaryLine{Resource: name, Label: sc.Plural(), Total: t.Total})
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), lines)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, l := range lines {
				fmt.Fprintf(tw, "%s\t%d\n", l.Label, l.Total)
			}
			return tw.Flush()
		},
	}
}
