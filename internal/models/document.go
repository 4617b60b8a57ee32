package models

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a generated document.
type Status string

const (
	StatusGenerated Status = "generated"
	StatusEdited    Status = "edited"
	StatusPrinted   Status = "printed"
	StatusSigned    Status = "signed"
	StatusSent      Status = "sent"
	StatusReceived  Status = "received"
	StatusArchived  Status = "archived"
)

// Statuses lists every lifecycle state in its nominal order.
var Statuses = []Status{
	StatusGenerated,
	StatusEdited,
	StatusPrinted,
	StatusSigned,
	StatusSent,
	StatusReceived,
	StatusArchived,
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of s in Statuses, or -1 when unknown.
func (s Status) Rank() int {
	for i, known := range Statuses {
		if s == known {
			return i
		}
	}
	return -1
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, v)
	}
	return s, nil
}

// DocumentStatus is the persisted record for one generated document.
// It is created with StatusGenerated and mutated only through status updates.
type DocumentStatus struct {
	ID                string     `firestore:"-" json:"id"`
	CaseID            string     `firestore:"case_id" json:"caseId"`
	TemplateType      string     `firestore:"template_type" json:"templateType"`
	Filename          string     `firestore:"filename" json:"filename"`
	StorageKey        string     `firestore:"storage_key,omitempty" json:"-"`
	ContentHash       string     `firestore:"content_hash,omitempty" json:"contentHash,omitempty"`
	FieldsFilledCount int        `firestore:"fields_filled" json:"fieldsFilledCount"`
	TotalFields       int        `firestore:"total_fields" json:"totalFields"`
	FillRate          int        `firestore:"fill_rate" json:"fillRate"`
	Status            Status     `firestore:"pdf_status" json:"pdfStatus"`
	StatusUpdatedAt   time.Time  `firestore:"status_updated_at" json:"statusUpdatedAt"`
	SignedAt          *time.Time `firestore:"signed_at,omitempty" json:"signedAt,omitempty"`
	SentAt            *time.Time `firestore:"sent_at,omitempty" json:"sentAt,omitempty"`
	ReceivedAt        *time.Time `firestore:"received_at,omitempty" json:"receivedAt,omitempty"`
	TrackingNumber    string     `firestore:"tracking_number,omitempty" json:"trackingNumber,omitempty"`
	LabelURL          string     `firestore:"label_url,omitempty" json:"labelUrl,omitempty"`
	SignatureData     string     `firestore:"signature_data,omitempty" json:"signatureData,omitempty"`
	CreatedAt         time.Time  `firestore:"created_at" json:"createdAt"`
}

// StatusUpdate is the patch applied to a DocumentStatus by a status change.
// Nil pointers leave the stored value untouched.
type StatusUpdate struct {
	Status         Status
	UpdatedAt      time.Time
	SignedAt       *time.Time
	SentAt         *time.Time
	ReceivedAt     *time.Time
	TrackingNumber *string
	LabelURL       *string
	SignatureData  *string
	// Check vets the move away from the stored status. Stores run it inside
	// the update, against the status the update replaces.
	Check func(from Status) error
}

// Permit runs Check, if any, for the stored status from.
func (u StatusUpdate) Permit(from Status) error {
	if u.Check == nil {
		return nil
	}
	return u.Check(from)
}

// Apply writes the patch onto doc.
func (u StatusUpdate) Apply(doc *DocumentStatus) {
	doc.Status = u.Status
	doc.StatusUpdatedAt = u.UpdatedAt
	if u.SignedAt != nil {
		doc.SignedAt = u.SignedAt
	}
	if u.SentAt != nil {
		doc.SentAt = u.SentAt
	}
	if u.ReceivedAt != nil {
		doc.ReceivedAt = u.ReceivedAt
	}
	if u.TrackingNumber != nil {
		doc.TrackingNumber = *u.TrackingNumber
	}
	if u.LabelURL != nil {
		doc.LabelURL = *u.LabelURL
	}
	if u.SignatureData != nil {
		doc.SignatureData = *u.SignatureData
	}
}

// StatusHistoryEntry is one row of the append-only status log.
type StatusHistoryEntry struct {
	DocumentID     string    `firestore:"document_id" json:"documentId"`
	Status         Status    `firestore:"pdf_status" json:"status"`
	PreviousStatus Status    `firestore:"previous_status,omitempty" json:"previousStatus,omitempty"`
	ChangedAt      time.Time `firestore:"changed_at" json:"changedAt"`
}

// TemplateReport is the outcome of cross-checking a template's form fields
// against its mapping table.
type TemplateReport struct {
	TemplateType  string    `firestore:"template_type" json:"templateType"`
	Object        string    `firestore:"object,omitempty" json:"object,omitempty"`
	PDFFieldCount int       `firestore:"pdf_field_count" json:"pdfFieldCount"`
	MappedCount   int       `firestore:"mapped_count" json:"mappedCount"`
	MissingInPDF  []string  `firestore:"missing_in_pdf" json:"missingInPdf"`
	Unmapped      []string  `firestore:"unmapped" json:"unmapped"`
	CheckedAt     time.Time `firestore:"checked_at" json:"checkedAt"`
}

// Consistent reports whether every mapped field exists in the template.
func (r TemplateReport) Consistent() bool {
	return len(r.MissingInPDF) == 0
}
