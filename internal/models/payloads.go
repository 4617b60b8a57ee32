package models

import "time"

// These structs define the JSON payloads exchanged between the portal and
// the document functions.

// FillPDFRequest is the input for the fill-pdf function.
type FillPDFRequest struct {
	CaseID       string `json:"caseId"`
	TemplateType string `json:"templateType"`
}

// FillPDFResponse is the output of the fill-pdf function. Exactly one of URL
// or PDF is set on success.
type FillPDFResponse struct {
	Success           bool       `json:"success"`
	DocumentID        string     `json:"documentId,omitempty"`
	URL               string     `json:"url,omitempty"`
	PDF               string     `json:"pdf,omitempty"`
	Filename          string     `json:"filename,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	FieldsFilledCount int        `json:"fieldsFilledCount"`
	TotalFields       int        `json:"totalFields"`
	FillRate          int        `json:"fillRate"`
	MissingFields     []string   `json:"missingFields,omitempty"`
	Error             string     `json:"error,omitempty"`
	ErrorKind         Kind       `json:"errorKind,omitempty"`
}

// FillPDFBatchRequest is the input for the batch fill function.
type FillPDFBatchRequest struct {
	Requests []FillPDFRequest `json:"requests"`
}

// FillPDFBatchResponse carries one response per request, in request order.
type FillPDFBatchResponse struct {
	Results []FillPDFResponse `json:"results"`
}

// ValidateRequest is the input for the validate-record function. When Data
// is empty the record of CaseID is loaded.
type ValidateRequest struct {
	TemplateType string `json:"templateType"`
	CaseID       string `json:"caseId,omitempty"`
	Data         Record `json:"data,omitempty"`
}

// ValidationResult is the derived pre-flight check of a record.
type ValidationResult struct {
	IsValid       bool     `json:"isValid"`
	MissingFields []string `json:"missingFields"`
	Warnings      []string `json:"warnings"`
	Coverage      int      `json:"coverage"`
}

// StatusMetadata is the optional metadata of a status update.
type StatusMetadata struct {
	TrackingNumber *string `json:"trackingNumber,omitempty"`
	LabelURL       *string `json:"labelUrl,omitempty"`
	SignatureData  *string `json:"signatureData,omitempty"`
}

// UpdateStatusRequest is the input for the update-status function.
type UpdateStatusRequest struct {
	DocumentID string          `json:"documentId"`
	Status     string          `json:"status"`
	Metadata   *StatusMetadata `json:"metadata,omitempty"`
}

// UpdateStatusResponse is the output of the update-status function.
type UpdateStatusResponse struct {
	Success   bool            `json:"success"`
	Document  *DocumentStatus `json:"document,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind Kind            `json:"errorKind,omitempty"`
}

// StatusHistoryResponse is the output of the status-history function.
type StatusHistoryResponse struct {
	DocumentID string               `json:"documentId"`
	History    []StatusHistoryEntry `json:"history"`
}

// GCSEvent is the payload of a Cloud Storage object event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}
