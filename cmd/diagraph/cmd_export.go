package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diagraph/diagraph/internal/caex"
	"github.com/diagraph/diagraph/internal/diag"
	"github.com/diagraph/diagraph/internal/facts"
	"github.com/diagraph/diagraph/internal/registry"
)

func exportCmd() *cobra.Command {
	var (
		output  string
		docName string
	)

	cmd := &cobra.Command{
		Use:   "export <facts-file>...",
		Short: "Process fact files and export the graph as a CAEX document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			parserCfg, err := cfg.ParserConfig()
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			// One task per input file, each with its own private registry,
			// merged at a single join point once all tasks complete.
			type taskResult struct {
				path string
				reg  *registry.Registry
				res  facts.Result
				err  error
			}
			results := make(chan taskResult, len(args))
			for _, path := range args {
				go func(path string) {
					private := registry.New(parserCfg, logger)
					f, loadErr := facts.Load(path)
					if loadErr != nil {
						results <- taskResult{path: path, err: loadErr}
						return
					}
					res, applyErr := facts.Apply(private, f, logger)
					results <- taskResult{path: path, reg: private, res: res, err: applyErr}
				}(path)
			}

			aggregate := registry.New(parserCfg, logger)
			applied, skipped := 0, 0
			for range args {
				select {
				case <-ctx.Done():
					// Discard the in-flight private stores; no partial merge.
					return ctx.Err()
				case r := <-results:
					if r.err != nil {
						return fmt.Errorf("export: processing %s: %w", r.path, r.err)
					}
					if mergeErr := aggregate.Merge(r.reg); mergeErr != nil {
						return fmt.Errorf("export: merging %s: %w", r.path, mergeErr)
					}
					applied += r.res.Applied
					skipped += r.res.Skipped
				}
			}

			name := docName
			if name == "" {
				name = cfg.Document.Name
			}
			diags := diag.NewCollector(logger)
			exp := caex.NewExporter(name, logger, diags)
			exp.Build(aggregate, cfg.HierarchyPerspectives(parserCfg))

			var w *os.File
			if output == "" || output == "-" {
				w = os.Stdout
			} else {
				w, err = os.Create(output)
				if err != nil {
					return fmt.Errorf("export: creating output file: %w", err)
				}
				defer func() { _ = w.Close() }()
			}

			if encErr := exp.Encode(w); encErr != nil {
				return fmt.Errorf("export: encoding document: %w", encErr)
			}

			stats := aggregate.Stats()
			fmt.Fprintf(os.Stderr, "Exported %d targets, %d connections (%d facts applied, %d skipped, %d diagnostics)\n",
				stats.Targets, stats.Connections, applied, skipped, len(exp.Diagnostics()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout)")
	cmd.Flags().StringVar(&docName, "name", "", "document name (defaults to document.name from config)")
	return cmd
}
