package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/polishcitizenship/docfill/internal/models"
)

// TransitionPolicy decides whether a document may move from one status to
// another. A rejection should wrap models.ErrTransitionRejected.
type TransitionPolicy func(from, to models.Status) error

// PermissiveTransitions allows any status to be set from any other.
func PermissiveTransitions(_, _ models.Status) error {
	return nil
}

// ForwardOnlyTransitions refuses moves back along the lifecycle.
func ForwardOnlyTransitions(from, to models.Status) error {
	if from.Valid() && to.Rank() < from.Rank() {
		return fmt.Errorf("%w: %s -> %s", models.ErrTransitionRejected, from, to)
	}
	return nil
}

// StatusTracker records lifecycle changes of generated documents.
type StatusTracker struct {
	store   DocumentStore
	policy  TransitionPolicy
	timeout time.Duration
	now     func() time.Time
}

// NewStatusTracker returns a tracker over store. A nil policy is permissive.
func NewStatusTracker(store DocumentStore, policy TransitionPolicy, timeout time.Duration) *StatusTracker {
	if policy == nil {
		policy = PermissiveTransitions
	}
	return &StatusTracker{store: store, policy: policy, timeout: timeout, now: time.Now}
}

// UpdateStatus sets the status of a document. The signed, sent and received
// timestamps are stamped only when that exact status is set. The transition
// policy is applied by the store against the status being replaced, so two
// racing updates cannot both pass it on a stale read. Accepted updates are
// last-write-wins.
func (t *StatusTracker) UpdateStatus(ctx context.Context, req models.UpdateStatusRequest) (*models.DocumentStatus, error) {
	id := strings.TrimSpace(req.DocumentID)
	if id == "" {
		return nil, fmt.Errorf("%w: documentId is required", models.ErrInvalidInput)
	}
	next, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	logCtx := slog.With("documentId", id, "status", next)

	var from models.Status
	now := t.now()
	update := models.StatusUpdate{Status: next, UpdatedAt: now}
	update.Check = func(current models.Status) error {
		from = current
		if err := t.policy(current, next); err != nil {
			logCtx.Warn("Status transition rejected.", "from", current)
			return err
		}
		return nil
	}
	switch next {
	case models.StatusSigned:
		update.SignedAt = &now
	case models.StatusSent:
		update.SentAt = &now
	case models.StatusReceived:
		update.ReceivedAt = &now
	}
	if m := req.Metadata; m != nil {
		update.TrackingNumber = m.TrackingNumber
		update.LabelURL = m.LabelURL
		update.SignatureData = m.SignatureData
	}

	doc, err := withTimeout(ctx, t.timeout, func(ctx context.Context) (*models.DocumentStatus, error) {
		return t.store.UpdateStatus(ctx, id, update)
	})
	if errors.Is(err, models.ErrTransitionRejected) {
		return nil, err
	}
	if err != nil {
		logCtx.Error("Failed to update status", "error", err)
		return nil, err
	}
	logCtx.Info("Status updated.", "from", from)
	return doc, nil
}

// Get returns the status record of id.
func (t *StatusTracker) Get(ctx context.Context, id string) (*models.DocumentStatus, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: documentId is required", models.ErrInvalidInput)
	}
	return withTimeout(ctx, t.timeout, func(ctx context.Context) (*models.DocumentStatus, error) {
		return t.store.GetDocument(ctx, id)
	})
}

// History returns the status changes of id, oldest first.
func (t *StatusTracker) History(ctx context.Context, id string) ([]models.StatusHistoryEntry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: documentId is required", models.ErrInvalidInput)
	}
	return withTimeout(ctx, t.timeout, func(ctx context.Context) ([]models.StatusHistoryEntry, error) {
		return t.store.History(ctx, id)
	})
}
