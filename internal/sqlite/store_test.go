package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polishcitizenship/docfill/internal/models"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "docfill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func newDocument(id string, at time.Time) *models.DocumentStatus {
	return &models.DocumentStatus{
		ID:                id,
		CaseID:            "case-1",
		TemplateType:      "poa-adult",
		Filename:          "poa-adult_case-1.pdf",
		StorageKey:        "generated/poa-adult/case-1/x.pdf",
		ContentHash:       "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		FieldsFilledCount: 5,
		TotalFields:       16,
		FillRate:          31,
		Status:            models.StatusGenerated,
		StatusUpdatedAt:   at,
		CreatedAt:         at,
	}
}

func TestNewStore_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docfill.db")
	ctx := context.Background()

	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.PutRecord(ctx, "case-1", models.Record{"a": "b"}))
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, path, second.Path())

	var versions int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 2, versions)

	record, err := second.GetRecord(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "b", record["a"])
}

func TestStore_Records(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.PutRecord(ctx, "case-1", models.Record{
		"applicant_first_name": "Jan",
		"children":             float64(2),
		"address":              map[string]any{"city": "Kraków"},
	}))
	require.NoError(t, s.PutRecord(ctx, "case-1", models.Record{
		"applicant_first_name": "Anna",
		"children":             float64(2),
		"address":              map[string]any{"city": "Kraków"},
	}))

	record, err := s.GetRecord(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "Anna", record["applicant_first_name"])
	assert.Equal(t, float64(2), record["children"])
	assert.Equal(t, map[string]any{"city": "Kraków"}, record["address"])
}

func TestStore_DocumentAndHistory(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateDocument(ctx, newDocument("doc-1", created)))
	assert.Error(t, s.CreateDocument(ctx, newDocument("doc-1", created)), "duplicate id")
	assert.ErrorIs(t, s.CreateDocument(ctx, newDocument("", created)), models.ErrInvalidInput)

	doc, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerated, doc.Status)
	assert.Equal(t, 31, doc.FillRate)
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", doc.ContentHash)
	assert.True(t, created.Equal(doc.CreatedAt))
	assert.Nil(t, doc.SignedAt)

	history, err := s.History(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	signed := created.Add(2 * time.Hour)
	signature := "data:image/png;base64,AAAA"
	updated, err := s.UpdateStatus(ctx, "doc-1", models.StatusUpdate{
		Status:        models.StatusSigned,
		UpdatedAt:     signed,
		SignedAt:      &signed,
		SignatureData: &signature,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSigned, updated.Status)

	sent := signed.Add(24 * time.Hour)
	tracking := "RR123456789PL"
	_, err = s.UpdateStatus(ctx, "doc-1", models.StatusUpdate{
		Status:         models.StatusSent,
		UpdatedAt:      sent,
		SentAt:         &sent,
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)

	doc, err = s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, doc.Status)
	require.NotNil(t, doc.SignedAt)
	assert.True(t, signed.Equal(*doc.SignedAt))
	require.NotNil(t, doc.SentAt)
	assert.True(t, sent.Equal(*doc.SentAt))
	assert.Nil(t, doc.ReceivedAt)
	assert.Equal(t, tracking, doc.TrackingNumber)
	assert.Equal(t, signature, doc.SignatureData)

	history, err = s.History(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "doc-1", history[0].DocumentID)
	assert.Equal(t, models.StatusSigned, history[0].Status)
	assert.Equal(t, models.StatusGenerated, history[0].PreviousStatus)
	assert.True(t, signed.Equal(history[0].ChangedAt))
	assert.Equal(t, models.StatusSent, history[1].Status)
	assert.Equal(t, models.StatusSigned, history[1].PreviousStatus)
}

func TestStore_SameStatusStillRecorded(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateDocument(ctx, newDocument("doc-1", at)))

	_, err := s.UpdateStatus(ctx, "doc-1", models.StatusUpdate{Status: models.StatusGenerated, UpdatedAt: at.Add(time.Minute)})
	require.NoError(t, err)

	history, err := s.History(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusGenerated, history[0].PreviousStatus)
}

func TestStore_CheckRejectsUpdate(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateDocument(ctx, newDocument("doc-1", at)))

	var seen models.Status
	_, err := s.UpdateStatus(ctx, "doc-1", models.StatusUpdate{
		Status:    models.StatusSent,
		UpdatedAt: at.Add(time.Minute),
		Check: func(from models.Status) error {
			seen = from
			return models.ErrTransitionRejected
		},
	})
	assert.ErrorIs(t, err, models.ErrTransitionRejected)
	assert.Equal(t, models.StatusGenerated, seen)

	doc, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerated, doc.Status)
	history, err := s.History(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_UnknownDocument(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.GetDocument(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.UpdateStatus(ctx, "nope", models.StatusUpdate{Status: models.StatusSent})
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.History(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_Reports(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(ctx, models.TemplateReport{
		TemplateType:  "poa-minor",
		Object:        "templates/poa-minor.pdf",
		PDFFieldCount: 10,
		MappedCount:   12,
		MissingInPDF:  []string{"maloletni_data_dzien", "maloletni_data_rok"},
		CheckedAt:     at,
	}))
	require.NoError(t, s.SaveReport(ctx, models.TemplateReport{TemplateType: "poa-adult", MappedCount: 16, PDFFieldCount: 16, CheckedAt: at}))
	require.NoError(t, s.SaveReport(ctx, models.TemplateReport{
		TemplateType:  "poa-minor",
		PDFFieldCount: 12,
		MappedCount:   12,
		Unmapped:      []string{"extra"},
		CheckedAt:     at.Add(time.Hour),
	}))

	reports, err := s.Reports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "poa-adult", reports[0].TemplateType)
	assert.Equal(t, []string{}, reports[0].MissingInPDF)
	assert.Equal(t, "poa-minor", reports[1].TemplateType)
	assert.Equal(t, 12, reports[1].PDFFieldCount)
	assert.Equal(t, []string{}, reports[1].MissingInPDF)
	assert.Equal(t, []string{"extra"}, reports[1].Unmapped)
	assert.True(t, at.Add(time.Hour).Equal(reports[1].CheckedAt))
}
