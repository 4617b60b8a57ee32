package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/polishcitizenship/docfill/internal/mapping"
	"github.com/polishcitizenship/docfill/internal/models"
)

// Inspector cross-checks template files against their mapping tables.
type Inspector struct {
	templates TemplateSource
	filler    FormFiller
	reports   ReportStore
	timeout   time.Duration
	now       func() time.Time
}

// NewInspector returns an inspector. reports may be nil, in which case
// reports are only returned.
func NewInspector(templates TemplateSource, filler FormFiller, reports ReportStore, timeout time.Duration) *Inspector {
	return &Inspector{templates: templates, filler: filler, reports: reports, timeout: timeout, now: time.Now}
}

// Check compares the form fields of pdf with the mapping of templateType.
func (i *Inspector) Check(ctx context.Context, templateType string, pdf []byte) (models.TemplateReport, error) {
	tmpl, ok := mapping.Lookup(templateType)
	if !ok {
		return models.TemplateReport{}, fmt.Errorf("template %q: %w", templateType, models.ErrNotFound)
	}
	names, err := i.filler.FieldNames(ctx, pdf)
	if err != nil {
		return models.TemplateReport{}, classify(err, models.ErrGenerationFailure)
	}
	return compare(tmpl, names, i.now()), nil
}

func compare(tmpl mapping.Template, pdfNames []string, at time.Time) models.TemplateReport {
	inPDF := make(map[string]bool, len(pdfNames))
	for _, n := range pdfNames {
		inPDF[n] = true
	}
	mapped := make(map[string]bool, tmpl.TotalFields())
	report := models.TemplateReport{
		TemplateType:  tmpl.Type,
		PDFFieldCount: len(pdfNames),
		MappedCount:   tmpl.TotalFields(),
		MissingInPDF:  []string{},
		Unmapped:      []string{},
		CheckedAt:     at,
	}
	for _, name := range tmpl.FieldNames() {
		mapped[name] = true
		if !inPDF[name] {
			report.MissingInPDF = append(report.MissingInPDF, name)
		}
	}
	for _, n := range pdfNames {
		if !mapped[n] {
			report.Unmapped = append(report.Unmapped, n)
		}
	}
	sort.Strings(report.Unmapped)
	return report
}

// InspectFile checks every template backed by file and stores the reports.
// A file no template uses yields no reports.
func (i *Inspector) InspectFile(ctx context.Context, file, object string) ([]models.TemplateReport, error) {
	logCtx := slog.With("file", file)
	templates := mapping.ByFile(file)
	if len(templates) == 0 {
		logCtx.Info("No template uses this file. Skipping.")
		return nil, nil
	}

	pdf, err := withTimeout(ctx, i.timeout, func(ctx context.Context) ([]byte, error) {
		return i.templates.Load(ctx, file)
	})
	if err != nil {
		logCtx.Error("Failed to load template file", "error", err)
		return nil, err
	}

	var reports []models.TemplateReport
	for _, tmpl := range templates {
		report, err := i.Check(ctx, tmpl.Type, pdf)
		if err != nil {
			logCtx.Error("Failed to inspect template", "templateType", tmpl.Type, "error", err)
			return reports, err
		}
		report.Object = object
		if !report.Consistent() {
			logCtx.Warn("Template is missing mapped fields.", "templateType", tmpl.Type, "missing", report.MissingInPDF)
		}
		if i.reports != nil {
			if _, err := withTimeout(ctx, i.timeout, func(ctx context.Context) (struct{}, error) {
				return struct{}{}, i.reports.SaveReport(ctx, report)
			}); err != nil {
				logCtx.Error("Failed to save template report", "templateType", tmpl.Type, "error", err)
				return reports, err
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}
