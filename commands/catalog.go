package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/ontopy/catalog"
)

func newCatalogCommand(g *globalFlags) *cobra.Command {
	var (
		check      bool
		provenance bool
	)
	cmd := &cobra.Command{
		Use:   "catalog <path>",
		Short: "List the entries of an XML catalog",
		Long: `catalog reads a catalog-v001.xml file, or the one in a directory,
following nextCatalog references, and lists its entries. With --check
every local location must exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(_ context.Context, _ *App) error {
				return runCatalog(cmd.OutOrStdout(), args[0], check, provenance)
			})
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Fail if a local location does not exist")
	cmd.Flags().BoolVar(&provenance, "provenance", false, "Also list the source of generated entities")
	return cmd
}

func runCatalog(out io.Writer, path string, check, provenance bool) error {
	c, err := catalog.ReadRecursive(path)
	if err != nil {
		return err
	}

	var missing int
	for _, e := range c.Entries() {
		status := ""
		if check && !catalog.IsURL(e.Location) {
			if _, err := os.Stat(e.Location); err != nil {
				status = "  [missing]"
				missing++
			}
		}
		fmt.Fprintf(out, "%s -> %s%s\n", e.Name, e.Location, status)
	}
	if provenance {
		for _, e := range c.ProvenanceEntries() {
			fmt.Fprintf(out, "%s <- %s\n", e.Name, e.Location)
		}
	}

	if missing > 0 {
		return fmt.Errorf("%d of %d catalog locations missing", missing, c.Len())
	}
	return nil
}
