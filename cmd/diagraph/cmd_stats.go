package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diagraph/diagraph/internal/facts"
	"github.com/diagraph/diagraph/internal/registry"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <facts-file>...",
		Short: "Process fact files and print entity counts per kind",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			parserCfg, err := cfg.ParserConfig()
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			reg := registry.New(parserCfg, logger)
			for _, path := range args {
				f, loadErr := facts.Load(path)
				if loadErr != nil {
					return fmt.Errorf("stats: %w", loadErr)
				}
				if _, applyErr := facts.Apply(reg, f, logger); applyErr != nil {
					return fmt.Errorf("stats: processing %s: %w", path, applyErr)
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(reg.Stats()); encErr != nil {
				return fmt.Errorf("stats: encoding: %w", encErr)
			}
			return nil
		},
	}
	return cmd
}
