package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/c360studio/ontopy/export"
	"github.com/c360studio/ontopy/loader"
	"github.com/c360studio/ontopy/ontology"
)

type loadFlags struct {
	output    string
	format    string
	noImports bool
	notEMMO   bool
	reload    bool
	closure   bool
	save      bool
}

func newLoadCommand(g *globalFlags) *cobra.Command {
	f := &loadFlags{}
	cmd := &cobra.Command{
		Use:   "load <iri|path|url|alias>",
		Short: "Load an ontology and its imports",
		Long: `Load resolves an ontology identifier through the catalogs, the local
file system, the search paths and the web, loads it with its imports and
prints a summary. With --output the ontology is also serialized.

EMMO aliases such as "emmo" or "emmo-inferred" are expanded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, app *App) error {
				return runLoad(ctx, app, cmd.OutOrStdout(), args[0], f)
			})
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Serialize the ontology to this file (- for stdout)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format (turtle, ntriples, rdfxml, jsonld)")
	cmd.Flags().BoolVar(&f.noImports, "no-imports", false, "Do not load owl:imports")
	cmd.Flags().BoolVar(&f.notEMMO, "not-emmo", false, "Label entities with rdfs:label only")
	cmd.Flags().BoolVar(&f.reload, "reload", false, "Parse the document again even if it is loaded")
	cmd.Flags().BoolVar(&f.closure, "closure", false, "Include the statements of all imports in the output")
	cmd.Flags().BoolVar(&f.save, "save", false, "Save the ontology and its imports to the store")
	return cmd
}

func runLoad(ctx context.Context, app *App, out io.Writer, id string, f *loadFlags) error {
	onto, err := app.Loader.Load(ctx, id,
		loader.FollowImports(!f.noImports),
		loader.EMMOBased(!f.notEMMO),
		loader.Reload(f.reload),
	)
	if err != nil {
		return err
	}

	if f.save {
		if app.Store == nil {
			return fmt.Errorf("--save needs a store (--store or loader.store)")
		}
		if err := app.Store.SaveClosure(ctx, onto); err != nil {
			return fmt.Errorf("save %s: %w", onto.IRI(), err)
		}
		app.Logger.Info("Saved ontology", slog.String("iri", onto.IRI()), slog.String("store", app.Store.Path()))
	}

	if f.output == "" {
		printSummary(out, onto)
		return nil
	}

	format, err := outputFormat(f.output, f.format, app.Config.Output.Format)
	if err != nil {
		return err
	}
	ontologies := []*ontology.Ontology{onto}
	if f.closure {
		ontologies = onto.ImportClosure()
	}
	return writeOntologies(out, f.output, format, ontologies...)
}

func printSummary(out io.Writer, onto *ontology.Ontology) {
	fmt.Fprintf(out, "Ontology:   %s\n", onto.IRI())
	if onto.Location() != "" {
		fmt.Fprintf(out, "Location:   %s\n", onto.Location())
	}
	fmt.Fprintf(out, "Triples:    %d\n", onto.Len())
	fmt.Fprintf(out, "Classes:    %d\n", len(onto.Classes()))
	fmt.Fprintf(out, "Properties: %d\n", len(onto.ObjectProperties())+len(onto.DataProperties())+len(onto.AnnotationProperties()))
	fmt.Fprintf(out, "Individuals: %d\n", len(onto.Individuals()))
	for _, imp := range onto.ImportClosure() {
		if imp == onto {
			continue
		}
		fmt.Fprintf(out, "Imports:    %s (%d triples)\n", imp.IRI(), imp.Len())
	}
}

// outputFormat picks the flag format, else the file extension, else the
// configured default.
func outputFormat(path, flag, fallback string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if path != "-" {
		if f, ok := export.FormatFromExtension(path); ok {
			return f, nil
		}
	}
	return export.ParseFormat(fallback)
}

// writeOntologies serializes the statements of ontologies to path, or to
// out when path is "-".
func writeOntologies(out io.Writer, path string, format export.Format, ontologies ...*ontology.Ontology) error {
	e := export.NewRDFExporter()
	for _, o := range ontologies {
		e.SetPrefixes(o.Prefixes())
		e.AddStatements(o.Statements()...)
	}
	if path == "-" {
		return e.Write(out, format)
	}
	return e.WriteFile(path, format)
}
