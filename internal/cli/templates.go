package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/polishcitizenship/docfill/internal/mapping"
	"github.com/polishcitizenship/docfill/internal/services"
)

var checkJSON bool

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the known template types",
	Args:  cobra.NoArgs,
	RunE:  runTemplates,
}

var fieldsCmd = &cobra.Command{
	Use:   "fields [pdf]",
	Short: "List the form fields of a PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runFields,
}

var checkCmd = &cobra.Command{
	Use:   "check [template-type] [pdf]",
	Short: "Compare a PDF's form fields with a template mapping",
	Long: `Reports mapped fields the PDF lacks and PDF fields no mapping uses.
Exits with an error when mapped fields are missing.`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "output the report as JSON")

	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(checkCmd)
}

func runTemplates(cmd *cobra.Command, _ []string) error {
	for _, typ := range mapping.Types() {
		tmpl, _ := mapping.Lookup(typ)
		cmd.Printf("%-16s %-22s %3d fields  %2d required  %d page(s)\n",
			tmpl.Type, tmpl.File, tmpl.TotalFields(), len(tmpl.Required), len(tmpl.Pages))
	}
	return nil
}

func runFields(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read pdf: %w", err)
	}
	names, err := newFiller().FieldNames(commandContext(cmd), data)
	if err != nil {
		return fmt.Errorf("failed to read form fields: %w", err)
	}
	for _, n := range names {
		cmd.Println(n)
	}
	cmd.Printf("Total: %d fields\n", len(names))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	templateType, path := args[0], args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pdf: %w", err)
	}

	inspector := services.NewInspector(nil, newFiller(), nil, time.Minute)
	report, err := inspector.Check(commandContext(cmd), templateType, data)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	report.Object = path

	if checkJSON {
		if err := printJSON(cmd, report); err != nil {
			return err
		}
	} else {
		cmd.Printf("Template %s (%s)\n", report.TemplateType, path)
		cmd.Printf("  PDF fields:    %d\n", report.PDFFieldCount)
		cmd.Printf("  Mapped fields: %d\n", report.MappedCount)
		for _, name := range report.MissingInPDF {
			cmd.Printf("  missing in PDF: %s\n", name)
		}
		for _, name := range report.Unmapped {
			cmd.Printf("  unmapped:       %s\n", name)
		}
	}

	if !report.Consistent() {
		return fmt.Errorf("%d mapped fields are missing from %s", len(report.MissingInPDF), path)
	}
	return nil
}
