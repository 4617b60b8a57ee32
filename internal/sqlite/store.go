// Package sqlite is the local-run store: case records, document status
// records with a trigger-maintained history, and template reports.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/polishcitizenship/docfill/internal/models"
	"github.com/polishcitizenship/docfill/internal/sqlite/migrations"
)

const timeLayout = time.RFC3339Nano

// Store wraps a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (and migrates) the database at path, creating parent
// directories as needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// ==================== Cases ====================

// PutRecord stores or replaces the record of caseID.
func (s *Store) PutRecord(ctx context.Context, caseID string, record models.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling record: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cases (case_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(case_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, caseID, string(data), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("saving case %s: %w", caseID, err)
	}
	return nil
}

// GetRecord returns the record of caseID.
func (s *Store) GetRecord(ctx context.Context, caseID string) (models.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM cases WHERE case_id = ?", caseID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", caseID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading case %s: %w", caseID, err)
	}
	var record models.Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("decoding case %s: %w", caseID, err)
	}
	return record, nil
}

// ==================== Documents ====================

const documentColumns = `id, case_id, template_type, filename, storage_key, fields_filled, total_fields,
	fill_rate, pdf_status, status_updated_at, signed_at, sent_at, received_at,
	tracking_number, label_url, signature_data, created_at, content_hash`

// CreateDocument inserts a new status record.
func (s *Store) CreateDocument(ctx context.Context, doc *models.DocumentStatus) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", models.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.CaseID, doc.TemplateType, doc.Filename, doc.StorageKey,
		doc.FieldsFilledCount, doc.TotalFields, doc.FillRate, string(doc.Status),
		formatTime(doc.StatusUpdatedAt), nullTime(doc.SignedAt), nullTime(doc.SentAt), nullTime(doc.ReceivedAt),
		doc.TrackingNumber, doc.LabelURL, doc.SignatureData, formatTime(doc.CreatedAt), doc.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("inserting document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument returns the status record of id.
func (s *Store) GetDocument(ctx context.Context, id string) (*models.DocumentStatus, error) {
	return getDocument(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDocument(ctx context.Context, q queryer, id string) (*models.DocumentStatus, error) {
	row := q.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)

	var (
		doc                            models.DocumentStatus
		status, statusUpdated, created string
		signedAt, sentAt, receivedAt   sql.NullString
	)
	err := row.Scan(&doc.ID, &doc.CaseID, &doc.TemplateType, &doc.Filename, &doc.StorageKey,
		&doc.FieldsFilledCount, &doc.TotalFields, &doc.FillRate, &status, &statusUpdated,
		&signedAt, &sentAt, &receivedAt, &doc.TrackingNumber, &doc.LabelURL, &doc.SignatureData, &created, &doc.ContentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading document %s: %w", id, err)
	}

	doc.Status = models.Status(status)
	doc.StatusUpdatedAt = parseTime(statusUpdated)
	doc.CreatedAt = parseTime(created)
	doc.SignedAt = parseNullTime(signedAt)
	doc.SentAt = parseNullTime(sentAt)
	doc.ReceivedAt = parseNullTime(receivedAt)
	return &doc, nil
}

// UpdateStatus applies update to id. The history row is written by the
// trg_documents_status_history trigger.
func (s *Store) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.DocumentStatus, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	doc, err := getDocument(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := update.Permit(doc.Status); err != nil {
		return nil, err
	}
	update.Apply(doc)

	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET
			pdf_status = ?, status_updated_at = ?, signed_at = ?, sent_at = ?, received_at = ?,
			tracking_number = ?, label_url = ?, signature_data = ?
		WHERE id = ?`,
		string(doc.Status), formatTime(doc.StatusUpdatedAt),
		nullTime(doc.SignedAt), nullTime(doc.SentAt), nullTime(doc.ReceivedAt),
		doc.TrackingNumber, doc.LabelURL, doc.SignatureData, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating document %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status update: %w", err)
	}
	return doc, nil
}

// History returns the status changes of id, oldest first.
func (s *Store) History(ctx context.Context, id string) ([]models.StatusHistoryEntry, error) {
	if _, err := s.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, pdf_status, previous_status, changed_at
		FROM document_status_history WHERE document_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying history of %s: %w", id, err)
	}
	defer rows.Close()

	entries := []models.StatusHistoryEntry{}
	for rows.Next() {
		var (
			e                models.StatusHistoryEntry
			status, prev, at string
		)
		if err := rows.Scan(&e.DocumentID, &status, &prev, &at); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Status = models.Status(status)
		e.PreviousStatus = models.Status(prev)
		e.ChangedAt = parseTime(at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ==================== Template reports ====================

// SaveReport stores the latest report of a template type.
func (s *Store) SaveReport(ctx context.Context, report models.TemplateReport) error {
	missing, err := json.Marshal(nonNil(report.MissingInPDF))
	if err != nil {
		return fmt.Errorf("marshalling missing fields: %w", err)
	}
	unmapped, err := json.Marshal(nonNil(report.Unmapped))
	if err != nil {
		return fmt.Errorf("marshalling unmapped fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO template_reports (template_type, object, pdf_field_count, mapped_count, missing_in_pdf, unmapped, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(template_type) DO UPDATE SET
			object = excluded.object,
			pdf_field_count = excluded.pdf_field_count,
			mapped_count = excluded.mapped_count,
			missing_in_pdf = excluded.missing_in_pdf,
			unmapped = excluded.unmapped,
			checked_at = excluded.checked_at`,
		report.TemplateType, report.Object, report.PDFFieldCount, report.MappedCount,
		string(missing), string(unmapped), formatTime(report.CheckedAt),
	)
	if err != nil {
		return fmt.Errorf("saving report for %s: %w", report.TemplateType, err)
	}
	return nil
}

// Reports returns all stored reports sorted by template type.
func (s *Store) Reports(ctx context.Context) ([]models.TemplateReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT template_type, object, pdf_field_count, mapped_count, missing_in_pdf, unmapped, checked_at
		FROM template_reports ORDER BY template_type`)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []models.TemplateReport
	for rows.Next() {
		var (
			r                          models.TemplateReport
			missing, unmapped, checked string
		)
		if err := rows.Scan(&r.TemplateType, &r.Object, &r.PDFFieldCount, &r.MappedCount, &missing, &unmapped, &checked); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		if err := json.Unmarshal([]byte(missing), &r.MissingInPDF); err != nil {
			return nil, fmt.Errorf("decoding missing fields: %w", err)
		}
		if err := json.Unmarshal([]byte(unmapped), &r.Unmapped); err != nil {
			return nil, fmt.Errorf("decoding unmapped fields: %w", err)
		}
		r.CheckedAt = parseTime(checked)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
