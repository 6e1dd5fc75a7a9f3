package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/ontopy/catalog"
	"github.com/c360studio/ontopy/excelparser"
)

type excelFlags struct {
	output          string
	format          string
	baseIRI         string
	ignoreMetadata  bool
	root            string
	language        string
	iriScheme       string
	force           bool
	skipAfterHeader int
	noCatalog       bool
	watch           bool
	debounce        time.Duration
}

func newExcelCommand(g *globalFlags) *cobra.Command {
	f := &excelFlags{}
	cmd := &cobra.Command{
		Use:     "excel2onto <spreadsheet>",
		Aliases: []string{"excel"},
		Short:   "Build an ontology from a spreadsheet",
		Long: `excel2onto reads the concepts, metadata and imported ontologies sheets of
an .xlsx workbook (or the concepts of a .csv file), builds an ontology
from them and writes it with a catalog-v001.xml next to it.

Imported ontologies are loaded so that parents and relation targets may
refer to their classes by label. With --watch the spreadsheet is rebuilt
every time it is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, app *App) error {
				opts, err := f.options(cmd, app)
				if err != nil {
					return err
				}
				build := func(ctx context.Context) error {
					return runExcel(ctx, app, cmd.OutOrStdout(), args[0], opts, f)
				}
				if !f.watch {
					return build(ctx)
				}
				w, err := excelparser.NewWatcher(args[0], f.debounce, app.Logger)
				if err != nil {
					return err
				}
				return w.Run(ctx, build)
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "Output file (default: the spreadsheet path with .ttl)")
	fl.StringVarP(&f.format, "format", "f", "", "Output format (turtle, ntriples, rdfxml, jsonld)")
	fl.StringVar(&f.baseIRI, "base-iri", "", "Namespace of the generated ontology")
	fl.BoolVar(&f.ignoreMetadata, "ignore-metadata-iri", false, "Keep --base-iri even if the metadata sheet names an ontology IRI")
	fl.StringVar(&f.root, "root", "", "Parent of rows with an empty parent cell (default: owl:Thing)")
	fl.StringVar(&f.language, "language", "", "Language tag of labels and text annotations")
	fl.StringVar(&f.iriScheme, "iri-scheme", "", "How entity IRIs are formed (label, uuid)")
	fl.BoolVar(&f.force, "force", false, "Skip rows whose parents cannot be resolved")
	fl.IntVar(&f.skipAfterHeader, "skip-after-header", 0, "Rows after the header holding column descriptions")
	fl.BoolVar(&f.noCatalog, "no-catalog", false, "Do not write catalog-v001.xml")
	fl.BoolVarP(&f.watch, "watch", "w", false, "Rebuild whenever the spreadsheet changes")
	fl.DurationVar(&f.debounce, "debounce", excelparser.DefaultDebounce, "Quiet period before a rebuild in watch mode")
	return cmd
}

// options merges the changed flags over the excel config section.
func (f *excelFlags) options(cmd *cobra.Command, app *App) (excelparser.Options, error) {
	opts := app.Config.Excel.Options()
	changed := cmd.Flags().Changed
	if changed("base-iri") {
		opts.BaseIRI = f.baseIRI
	}
	if f.ignoreMetadata {
		opts.IgnoreMetadataIRI = true
	}
	if changed("root") {
		opts.Root = f.root
	}
	if changed("language") {
		opts.Language = f.language
	}
	if changed("iri-scheme") {
		opts.IRIScheme = excelparser.IRIScheme(f.iriScheme)
	}
	if f.force {
		opts.Force = true
	}
	if changed("skip-after-header") {
		opts.SkipAfterHeader = f.skipAfterHeader
	}
	opts.OutputPath = f.output
	opts.World = app.World
	opts.Importer = app.Loader
	opts.Logger = app.Logger
	opts.Metrics = app.Metrics
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

func runExcel(ctx context.Context, app *App, out io.Writer, path string, opts excelparser.Options, f *excelFlags) error {
	b, err := excelparser.NewBuilder(opts)
	if err != nil {
		return err
	}
	wb, err := excelparser.ReadWorkbook(path, opts)
	if err != nil {
		return err
	}
	res, err := b.Build(ctx, wb)
	if err != nil {
		return err
	}
	for _, row := range res.Skipped {
		fmt.Fprintf(out, "skipped row %d %q: unresolved parents %v\n", row.Row, row.Name, row.Missing)
	}

	onto := res.Ontology
	dest := onto.Location()
	format, err := outputFormat(dest, f.format, app.Config.Output.Format)
	if err != nil {
		return err
	}
	if err := writeOntologies(out, dest, format, onto); err != nil {
		return err
	}

	if !f.noCatalog && !app.Config.Output.NoCatalog {
		catPath := filepath.Join(filepath.Dir(dest), catalog.FileName)
		if err := res.Catalog.WriteFile(catPath, true); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
		app.Logger.Debug("Wrote catalog", slog.String("path", catPath))
	}

	fmt.Fprintf(out, "Wrote %s (%d classes, %d triples)\n", dest, len(onto.Classes()), onto.Len())
	return nil
}
