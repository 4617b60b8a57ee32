package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/polishcitizenship/docfill/internal/models"
)

// HistoryCollection is the per-document subcollection of status changes.
const HistoryCollection = "status_history"

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all functions.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// Collections names the Firestore collections used by FirestoreStore.
type Collections struct {
	Cases     string
	Documents string
	Reports   string
}

// FirestoreStore keeps case records, document status records with their
// history subcollection, and template reports.
type FirestoreStore struct {
	client      *firestore.Client
	collections Collections
}

// NewFirestoreStore wraps client.
func NewFirestoreStore(client *firestore.Client, collections Collections) *FirestoreStore {
	return &FirestoreStore{client: client, collections: collections}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// GetRecord returns the case document of caseID as a record.
func (s *FirestoreStore) GetRecord(ctx context.Context, caseID string) (models.Record, error) {
	snap, err := s.client.Collection(s.collections.Cases).Doc(caseID).Get(ctx)
	if isNotFound(err) {
		return nil, fmt.Errorf("case %s: %w", caseID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	return models.Record(snap.Data()), nil
}

func (s *FirestoreStore) documentRef(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collections.Documents).Doc(id)
}

// CreateDocument writes a new status record under doc.ID.
func (s *FirestoreStore) CreateDocument(ctx context.Context, doc *models.DocumentStatus) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", models.ErrInvalidInput)
	}
	if _, err := s.documentRef(doc.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument returns the status record of id.
func (s *FirestoreStore) GetDocument(ctx context.Context, id string) (*models.DocumentStatus, error) {
	snap, err := s.documentRef(id).Get(ctx)
	if isNotFound(err) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return decodeDocument(snap)
}

func decodeDocument(snap *firestore.DocumentSnapshot) (*models.DocumentStatus, error) {
	var doc models.DocumentStatus
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", snap.Ref.ID, err)
	}
	doc.ID = snap.Ref.ID
	return &doc, nil
}

// UpdateStatus applies update and appends the history entry in one transaction.
func (s *FirestoreStore) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.DocumentStatus, error) {
	ref := s.documentRef(id)
	var updated *models.DocumentStatus

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return err
		}
		doc, err := decodeDocument(snap)
		if err != nil {
			return err
		}
		previous := doc.Status
		if err := update.Permit(previous); err != nil {
			return err
		}
		update.Apply(doc)

		if err := tx.Update(ref, statusUpdates(update)); err != nil {
			return err
		}
		entry := models.StatusHistoryEntry{
			DocumentID:     id,
			Status:         doc.Status,
			PreviousStatus: previous,
			ChangedAt:      doc.StatusUpdatedAt,
		}
		if err := tx.Create(ref.Collection(HistoryCollection).NewDoc(), entry); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrTransitionRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update status of %s: %w", id, err)
	}
	return updated, nil
}

// statusUpdates lists only the fields the update touches.
func statusUpdates(u models.StatusUpdate) []firestore.Update {
	updates := []firestore.Update{
		{Path: "pdf_status", Value: string(u.Status)},
		{Path: "status_updated_at", Value: u.UpdatedAt},
	}
	if u.SignedAt != nil {
		updates = append(updates, firestore.Update{Path: "signed_at", Value: *u.SignedAt})
	}
	if u.SentAt != nil {
		updates = append(updates, firestore.Update{Path: "sent_at", Value: *u.SentAt})
	}
	if u.ReceivedAt != nil {
		updates = append(updates, firestore.Update{Path: "received_at", Value: *u.ReceivedAt})
	}
	if u.TrackingNumber != nil {
		updates = append(updates, firestore.Update{Path: "tracking_number", Value: *u.TrackingNumber})
	}
	if u.LabelURL != nil {
		updates = append(updates, firestore.Update{Path: "label_url", Value: *u.LabelURL})
	}
	if u.SignatureData != nil {
		updates = append(updates, firestore.Update{Path: "signature_data", Value: *u.SignatureData})
	}
	return updates
}

// History returns the status changes of id, oldest first.
func (s *FirestoreStore) History(ctx context.Context, id string) ([]models.StatusHistoryEntry, error) {
	ref := s.documentRef(id)
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}

	iter := ref.Collection(HistoryCollection).OrderBy("changed_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	entries := []models.StatusHistoryEntry{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read history of %s: %w", id, err)
		}
		var entry models.StatusHistoryEntry
		if err := snap.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode history entry %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveReport stores the latest report of a template type.
func (s *FirestoreStore) SaveReport(ctx context.Context, report models.TemplateReport) error {
	if _, err := s.client.Collection(s.collections.Reports).Doc(report.TemplateType).Set(ctx, report); err != nil {
		return fmt.Errorf("failed to save report for %s: %w", report.TemplateType, err)
	}
	return nil
}

// Close releases the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
