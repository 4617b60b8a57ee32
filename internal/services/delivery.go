package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polishcitizenship/docfill/internal/models"
)

const pdfContentType = "application/pdf"

// Delivered is how a generated file was handed back: a signed link, or the
// file inline when no link could be issued.
type Delivered struct {
	URL        string
	ExpiresAt  *time.Time
	PDF        string
	Filename   string
	StorageKey string
}

// Inline reports whether the file travels base64-encoded in the response.
func (d Delivered) Inline() bool {
	return d.URL == ""
}

// Delivery stores generated files and issues signed links. With no object
// store configured every file is returned inline.
type Delivery struct {
	store   ObjectStore
	prefix  string
	expiry  time.Duration
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// NewDelivery returns a delivery layer over store, which may be nil.
func NewDelivery(store ObjectStore, prefix string, expiry, timeout time.Duration) *Delivery {
	return &Delivery{
		store:   store,
		prefix:  prefix,
		expiry:  expiry,
		timeout: timeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Filename is the download name of a generated document.
func Filename(templateType, caseID string) string {
	return fmt.Sprintf("%s_%s.pdf", safeSegment(templateType), safeSegment(caseID))
}

// ObjectKey is the storage key of one generated document.
func (d *Delivery) ObjectKey(templateType, caseID string) string {
	return fmt.Sprintf("%s%s/%s/%s.pdf", d.prefix, safeSegment(templateType), safeSegment(caseID), d.newID())
}

func safeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ':
			return '_'
		}
		return r
	}, s)
}

// Deliver hands data back to the caller. Upload or signing failures fall
// back to inline delivery; only an empty file is a delivery failure.
func (d *Delivery) Deliver(ctx context.Context, logCtx *slog.Logger, templateType, caseID string, data []byte) (Delivered, error) {
	if len(data) == 0 {
		return Delivered{}, fmt.Errorf("%w: empty document", models.ErrDeliveryFailure)
	}
	out := Delivered{Filename: Filename(templateType, caseID)}
	if d.store == nil {
		return d.inline(out, data), nil
	}

	key := d.ObjectKey(templateType, caseID)
	if _, err := withTimeout(ctx, d.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.store.Put(ctx, key, data, pdfContentType)
	}); err != nil {
		logCtx.Warn("Upload failed, returning document inline.", "storageKey", key, "error", err)
		return d.inline(out, data), nil
	}
	out.StorageKey = key

	issued := d.now()
	link, err := withTimeout(ctx, d.timeout, func(ctx context.Context) (string, error) {
		return d.store.SignedURL(ctx, key, d.expiry)
	})
	if err != nil {
		logCtx.Warn("Signing failed, returning document inline.", "storageKey", key, "error", err)
		return d.inline(out, data), nil
	}
	expires := issued.Add(d.expiry)
	out.URL = link
	out.ExpiresAt = &expires
	return out, nil
}

func (d *Delivery) inline(out Delivered, data []byte) Delivered {
	out.PDF = base64.StdEncoding.EncodeToString(data)
	return out
}
