package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/granme/caprisystem"

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the capri version",
		Args:        cobra.NoArgs,
		Annotations: skipsSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "capri %s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
