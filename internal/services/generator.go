package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polishcitizenship/docfill/internal/batch"
	"github.com/polishcitizenship/docfill/internal/mapping"
	"github.com/polishcitizenship/docfill/internal/models"
	"github.com/polishcitizenship/docfill/internal/validation"
)

type GeneratorConfig struct {
	CallTimeout      time.Duration
	RequireValid     bool
	BatchConcurrency int
	BatchDelay       time.Duration
}

// GeneratorDeps are the collaborators of a Generator. Documents may be nil,
// in which case no status record is written.
type GeneratorDeps struct {
	Templates TemplateSource
	Cases     CaseStore
	Documents DocumentStore
	Filler    FormFiller
	Delivery  *Delivery
	Validator *validation.Validator
}

// Generator fills case data into PDF templates.
type Generator struct {
	deps   GeneratorDeps
	config GeneratorConfig
	runner *batch.Runner[models.FillPDFRequest, models.FillPDFResponse]
	now    func() time.Time
	newID  func() string
}

func NewGenerator(deps GeneratorDeps, config GeneratorConfig) *Generator {
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	if deps.Delivery == nil {
		deps.Delivery = NewDelivery(nil, "", 0, config.CallTimeout)
	}
	return &Generator{
		deps:   deps,
		config: config,
		runner: batch.NewRunner[models.FillPDFRequest, models.FillPDFResponse](batch.Config{
			Concurrency: config.BatchConcurrency,
			Delay:       config.BatchDelay,
		}),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Rendered is a filled template before delivery.
type Rendered struct {
	PDF  []byte
	Fill mapping.Fill
}

// Render loads the template file of tmpl and fills it from record. It has no
// side effects and never modifies record.
func (g *Generator) Render(ctx context.Context, tmpl mapping.Template, record models.Record) (*Rendered, error) {
	source, err := withTimeout(ctx, g.config.CallTimeout, func(ctx context.Context) ([]byte, error) {
		return g.deps.Templates.Load(ctx, tmpl.File)
	})
	if err != nil {
		return nil, classify(fmt.Errorf("failed to load template %s: %w", tmpl.File, err), models.ErrGenerationFailure)
	}

	fill := mapping.Apply(tmpl, record)
	filled, err := g.deps.Filler.Fill(ctx, source, fill.Values)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to fill %s: %w", tmpl.Type, err), models.ErrGenerationFailure)
	}
	return &Rendered{PDF: filled, Fill: fill}, nil
}

// Generate produces the document of one case: template lookup, record
// load, optional pre-flight check, fill, delivery and status record.
func (g *Generator) Generate(ctx context.Context, req models.FillPDFRequest) (*models.FillPDFResponse, error) {
	logCtx := slog.With("caseId", req.CaseID, "templateType", req.TemplateType)

	if strings.TrimSpace(req.CaseID) == "" || strings.TrimSpace(req.TemplateType) == "" {
		return nil, fmt.Errorf("%w: caseId and templateType are required", models.ErrInvalidInput)
	}
	tmpl, ok := mapping.Lookup(req.TemplateType)
	if !ok {
		logCtx.Warn("Unknown template type.")
		return nil, fmt.Errorf("template %q: %w", req.TemplateType, models.ErrNotFound)
	}

	record, err := withTimeout(ctx, g.config.CallTimeout, func(ctx context.Context) (models.Record, error) {
		return g.deps.Cases.GetRecord(ctx, req.CaseID)
	})
	if err != nil {
		logCtx.Error("Failed to load case record", "error", err)
		return nil, classify(err, models.ErrGenerationFailure)
	}

	if g.config.RequireValid {
		if err := g.deps.Validator.Check(record, tmpl.Type); err != nil {
			logCtx.Info("Record failed pre-flight validation.", "error", err)
			return nil, err
		}
	}

	rendered, err := g.Render(ctx, tmpl, record)
	if err != nil {
		logCtx.Error("Failed to render document", "error", err)
		return nil, err
	}

	delivered, err := g.deps.Delivery.Deliver(ctx, logCtx, tmpl.Type, req.CaseID, rendered.PDF)
	if err != nil {
		logCtx.Error("Failed to deliver document", "error", err)
		return nil, err
	}

	resp := &models.FillPDFResponse{
		Success:           true,
		URL:               delivered.URL,
		PDF:               delivered.PDF,
		Filename:          delivered.Filename,
		ExpiresAt:         delivered.ExpiresAt,
		FieldsFilledCount: rendered.Fill.Filled,
		TotalFields:       rendered.Fill.Total,
		FillRate:          rendered.Fill.Rate(),
	}
	resp.DocumentID = g.recordDocument(ctx, logCtx, tmpl, req.CaseID, delivered, rendered)

	logCtx.Info("Document generated.",
		"documentId", resp.DocumentID,
		"fieldsFilled", resp.FieldsFilledCount,
		"totalFields", resp.TotalFields,
		"fillRate", resp.FillRate,
		"inline", delivered.Inline(),
	)
	return resp, nil
}

// recordDocument writes the initial status record. Failures are logged and
// leave the document without an id; the generated file is still returned.
func (g *Generator) recordDocument(ctx context.Context, logCtx *slog.Logger, tmpl mapping.Template, caseID string, delivered Delivered, rendered *Rendered) string {
	if g.deps.Documents == nil {
		return ""
	}
	fill := rendered.Fill
	now := g.now()
	doc := &models.DocumentStatus{
		ID:                g.newID(),
		CaseID:            caseID,
		TemplateType:      tmpl.Type,
		Filename:          delivered.Filename,
		StorageKey:        delivered.StorageKey,
		ContentHash:       ContentHash(rendered.PDF),
		FieldsFilledCount: fill.Filled,
		TotalFields:       fill.Total,
		FillRate:          fill.Rate(),
		Status:            models.StatusGenerated,
		StatusUpdatedAt:   now,
		CreatedAt:         now,
	}
	if _, err := withTimeout(ctx, g.config.CallTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.deps.Documents.CreateDocument(ctx, doc)
	}); err != nil {
		logCtx.Error("Failed to record document status", "error", err)
		return ""
	}
	return doc.ID
}

// ContentHash is the hex SHA-256 of a generated file.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GenerateBatch runs Generate for every request with bounded concurrency and
// paced starts. Results are in request order; failures are per item.
func (g *Generator) GenerateBatch(ctx context.Context, reqs []models.FillPDFRequest) []models.FillPDFResponse {
	return g.runner.Run(ctx, reqs, func(ctx context.Context, req models.FillPDFRequest) models.FillPDFResponse {
		resp, err := g.Generate(ctx, req)
		if err != nil {
			return FailedFill(err)
		}
		return *resp
	}, func(req models.FillPDFRequest, err error) models.FillPDFResponse {
		slog.Warn("Batch request not started", "caseId", req.CaseID, "templateType", req.TemplateType, "error", err)
		return FailedFill(fmt.Errorf("request not started: %w", err))
	})
}
