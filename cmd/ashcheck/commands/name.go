package commands

import (
	stderrors "errors"
	"fmt"
	ashcache "github.com/Borislavv/go-ash-registry"
	"github.com/spf13/cobra"
)

func (c *CLI) newNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "name <name>...",
		Short: "Check that cache names are legal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, name := range args {
				if err := ashcache.ValidateName(name); err != nil {
					errs = append(errs, err)
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%q\tillegal\n", name)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%q\tok\n", name)
			}
			return stderrors.Join(errs...)
		},
	}
}
