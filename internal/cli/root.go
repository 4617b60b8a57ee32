// Package cli implements the docfill command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/polishcitizenship/docfill/internal/config"
	"github.com/polishcitizenship/docfill/internal/functions"
	"github.com/polishcitizenship/docfill/internal/models"
	"github.com/polishcitizenship/docfill/internal/pdf"
	"github.com/polishcitizenship/docfill/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "docfill",
	Short: "Fill citizenship case data into PDF templates",
	Long: `docfill generates power-of-attorney, family-tree and application documents
from case records, tracks their status and checks templates against the
field mappings.`,
	SilenceUsage: true,
}

// Replaced in tests.
var (
	bootstrap = functions.Bootstrap
	newFiller = func() services.FormFiller { return pdf.NewFiller() }
)

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadApp resolves the configuration from the environment and flags and
// bootstraps the backends it selects.
func loadApp(cmd *cobra.Command) (*functions.App, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))
	return bootstrap(commandContext(cmd), cfg)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func readRecord(path string) (models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var record models.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", path, err)
	}
	return record, nil
}
