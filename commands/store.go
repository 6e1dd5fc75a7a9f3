package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newStoreCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the ontology store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the stored ontologies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, app *App) error {
				if app.Store == nil {
					return errNoStore
				}
				records, err := app.Store.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "IRI\tTRIPLES\tIMPORTS\tSAVED")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.IRI, r.Triples, strings.Join(r.Imports, ","), r.SavedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <iri>",
		Short: "Remove an ontology from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, app *App) error {
				if app.Store == nil {
					return errNoStore
				}
				if err := app.Store.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	})
	return cmd
}
