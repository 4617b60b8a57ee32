// Package memory provides in-process stores for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/polishcitizenship/docfill/internal/models"
)

// Store keeps case records, document status records, their history,
// template reports and generated objects in memory.
type Store struct {
	mu        sync.RWMutex
	records   map[string]models.Record
	documents map[string]models.DocumentStatus
	history   map[string][]models.StatusHistoryEntry
	reports   map[string]models.TemplateReport
	objects   map[string]object
	now       func() time.Time
}

type object struct {
	data        []byte
	contentType string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records:   make(map[string]models.Record),
		documents: make(map[string]models.DocumentStatus),
		history:   make(map[string][]models.StatusHistoryEntry),
		reports:   make(map[string]models.TemplateReport),
		objects:   make(map[string]object),
		now:       time.Now,
	}
}

// PutRecord stores a copy of record under caseID.
func (s *Store) PutRecord(_ context.Context, caseID string, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[caseID] = copyRecord(record)
	return nil
}

// GetRecord returns a copy of the record of caseID.
func (s *Store) GetRecord(_ context.Context, caseID string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[caseID]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", caseID, models.ErrNotFound)
	}
	return copyRecord(record), nil
}

// CreateDocument stores a new status record. The id must be set and unused.
func (s *Store) CreateDocument(_ context.Context, doc *models.DocumentStatus) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument returns the status record of id.
func (s *Store) GetDocument(_ context.Context, id string) (*models.DocumentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return &doc, nil
}

// UpdateStatus applies update to document id and appends a history entry.
func (s *Store) UpdateStatus(_ context.Context, id string, update models.StatusUpdate) (*models.DocumentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	previous := doc.Status
	if err := update.Permit(previous); err != nil {
		return nil, err
	}
	update.Apply(&doc)
	s.documents[id] = doc
	s.history[id] = append(s.history[id], models.StatusHistoryEntry{
		DocumentID:     id,
		Status:         doc.Status,
		PreviousStatus: previous,
		ChangedAt:      doc.StatusUpdatedAt,
	})
	return &doc, nil
}

// History returns the status changes of id, oldest first.
func (s *Store) History(_ context.Context, id string) ([]models.StatusHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.documents[id]; !ok {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	entries := make([]models.StatusHistoryEntry, len(s.history[id]))
	copy(entries, s.history[id])
	return entries, nil
}

// SaveReport stores the latest report of a template type.
func (s *Store) SaveReport(_ context.Context, report models.TemplateReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.TemplateType] = report
	return nil
}

// Reports returns the stored reports sorted by template type.
func (s *Store) Reports(_ context.Context) ([]models.TemplateReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TemplateReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateType < out[j].TemplateType })
	return out, nil
}

// Put stores a generated object.
func (s *Store) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Object returns a stored object.
func (s *Store) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, ok
}

// SignedURL returns a memory:// link carrying the expiry time.
func (s *Store) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("object %s: %w", key, models.ErrNotFound)
	}
	u := url.URL{
		Scheme:   "memory",
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {fmt.Sprint(s.now().Add(expiry).Unix())}}.Encode(),
	}
	return u.String(), nil
}

func copyRecord(r models.Record) models.Record {
	if r == nil {
		return nil
	}
	out := make(models.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
