package services

import (
	"context"
	"time"

	"github.com/polishcitizenship/docfill/internal/models"
)

// TemplateSource loads template files by name. A missing file is
// models.ErrNotFound.
type TemplateSource interface {
	Load(ctx context.Context, file string) ([]byte, error)
}

// CaseStore reads case records. A missing case is models.ErrNotFound.
type CaseStore interface {
	GetRecord(ctx context.Context, caseID string) (models.Record, error)
}

// DocumentStore persists generated-document status records and their
// status history. UpdateStatus appends one history entry per call.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.DocumentStatus) error
	GetDocument(ctx context.Context, id string) (*models.DocumentStatus, error)
	UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.DocumentStatus, error)
	History(ctx context.Context, id string) ([]models.StatusHistoryEntry, error)
}

// ObjectStore holds generated files and hands out time-limited links.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// FormFiller reads and fills PDF forms.
type FormFiller interface {
	FieldNames(ctx context.Context, pdf []byte) ([]string, error)
	Fill(ctx context.Context, pdf []byte, values map[string]string) ([]byte, error)
}

// ReportStore keeps template consistency reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report models.TemplateReport) error
}
