package cli

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polishcitizenship/docfill/internal/config"
	"github.com/polishcitizenship/docfill/internal/mapping"
	"github.com/polishcitizenship/docfill/internal/models"
	"github.com/polishcitizenship/docfill/internal/services"
	"github.com/polishcitizenship/docfill/internal/validation"
)

var (
	fillOutput     string
	generateOutput string
	validateJSON   bool
)

var fillCmd = &cobra.Command{
	Use:   "fill [template-type] [record.json]",
	Short: "Fill a template from a local record file",
	Long: `Fills a template from --templates-dir with the values of a JSON record and
writes the result. Nothing is stored or tracked.`,
	Args: cobra.ExactArgs(2),
	RunE: runFill,
}

var generateCmd = &cobra.Command{
	Use:   "generate [template-type] [case-id]",
	Short: "Generate a case document through the configured backends",
	Args:  cobra.ExactArgs(2),
	RunE:  runGenerate,
}

var validateCmd = &cobra.Command{
	Use:   "validate [template-type] [record.json]",
	Short: "Check a record for the required fields of a template",
	Args:  cobra.ExactArgs(2),
	RunE:  runValidate,
}

func init() {
	fillCmd.Flags().StringVarP(&fillOutput, "output", "o", "", "output file (default {type}_filled.pdf)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write an inline document to this file")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output the result as JSON")

	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	templateType, recordPath := args[0], args[1]
	tmpl, ok := mapping.Lookup(templateType)
	if !ok {
		return fmt.Errorf("template %q: %w", templateType, models.ErrNotFound)
	}
	record, err := readRecord(recordPath)
	if err != nil {
		return err
	}

	dir := config.DefaultConfig().TemplatesDir
	if f := cmd.Flag("templates-dir"); f != nil {
		dir = f.Value.String()
	}
	generator := services.NewGenerator(services.GeneratorDeps{
		Templates: services.DirTemplates{Dir: dir},
		Filler:    newFiller(),
	}, services.GeneratorConfig{CallTimeout: config.DefaultCallTimeout})

	rendered, err := generator.Render(commandContext(cmd), tmpl, record)
	if err != nil {
		return err
	}

	out := fillOutput
	if out == "" {
		out = templateType + "_filled.pdf"
	}
	if err := os.WriteFile(out, rendered.PDF, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	cmd.Printf("Wrote %s: %d of %d fields filled (%d%%)\n",
		out, rendered.Fill.Filled, rendered.Fill.Total, rendered.Fill.Rate())
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.Generator.Generate(commandContext(cmd), models.FillPDFRequest{
		TemplateType: args[0],
		CaseID:       args[1],
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if resp.PDF != "" && generateOutput != "" {
		data, err := base64.StdEncoding.DecodeString(resp.PDF)
		if err != nil {
			return fmt.Errorf("failed to decode document: %w", err)
		}
		if err := os.WriteFile(generateOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", generateOutput, err)
		}
		resp.PDF = ""
		cmd.Printf("Wrote %s\n", generateOutput)
	}
	return printJSON(cmd, resp)
}

func runValidate(cmd *cobra.Command, args []string) error {
	templateType := args[0]
	if _, ok := mapping.Lookup(templateType); !ok {
		return fmt.Errorf("template %q: %w", templateType, models.ErrNotFound)
	}
	record, err := readRecord(args[1])
	if err != nil {
		return err
	}

	res := validation.New().Validate(record, templateType)
	if validateJSON {
		return printJSON(cmd, res)
	}

	if res.IsValid {
		cmd.Printf("Valid for %s (coverage %d%%)\n", templateType, res.Coverage)
	} else {
		cmd.Printf("Not valid for %s (coverage %d%%)\n", templateType, res.Coverage)
		for _, key := range res.MissingFields {
			cmd.Printf("  missing: %s\n", key)
		}
	}
	for _, w := range res.Warnings {
		cmd.Printf("  warning: %s\n", w)
	}
	return nil
}
