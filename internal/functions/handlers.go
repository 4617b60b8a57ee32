package functions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/polishcitizenship/docfill/internal/models"
	"github.com/polishcitizenship/docfill/internal/services"
)

// MaxBatchSize bounds the number of requests accepted by FillPDFBatch.
const MaxBatchSize = 100

// maxBodyBytes bounds request bodies; inline records are small.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	ErrorKind models.Kind `json:"errorKind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	writeJSON(w, kind.HTTPStatus(), errorResponse{Error: err.Error(), ErrorKind: kind})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Method != http.MethodPost {
		return fmt.Errorf("%w: method %s not allowed", models.ErrInvalidInput, r.Method)
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		return fmt.Errorf("%w: could not parse JSON: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// Guard turns a panic in h into a 500 response.
func Guard(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Handler panicked", "panic", rec, "path", r.URL.Path)
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:     "internal error",
					ErrorKind: models.KindInternal,
				})
			}
		}()
		h(w, r)
	}
}

// FillPDF generates one document.
func (a *App) FillPDF(w http.ResponseWriter, r *http.Request) {
	var req models.FillPDFRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, services.FailedFill(err))
		return
	}

	resp, err := a.Generator.Generate(r.Context(), req)
	if err != nil {
		writeJSON(w, models.KindOf(err).HTTPStatus(), services.FailedFill(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// FillPDFBatch generates several documents. Item failures are reported per
// result; the call itself only fails on a malformed request.
func (a *App) FillPDFBatch(w http.ResponseWriter, r *http.Request) {
	var req models.FillPDFBatchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	switch {
	case len(req.Requests) == 0:
		writeError(w, fmt.Errorf("%w: requests must not be empty", models.ErrInvalidInput))
		return
	case len(req.Requests) > MaxBatchSize:
		writeError(w, fmt.Errorf("%w: at most %d requests per batch", models.ErrInvalidInput, MaxBatchSize))
		return
	}

	results := a.Generator.GenerateBatch(r.Context(), req.Requests)
	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	slog.Info("Batch finished.", "requests", len(results), "failed", failed)
	writeJSON(w, http.StatusOK, models.FillPDFBatchResponse{Results: results})
}

// ValidateRecord checks a record against a template's required fields. The
// record is taken from the request or loaded by case id.
func (a *App) ValidateRecord(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.TemplateType) == "" {
		writeError(w, fmt.Errorf("%w: templateType is required", models.ErrInvalidInput))
		return
	}

	record := req.Data
	if record == nil {
		if strings.TrimSpace(req.CaseID) == "" {
			writeError(w, fmt.Errorf("%w: data or caseId is required", models.ErrInvalidInput))
			return
		}
		loaded, err := a.Store.GetRecord(r.Context(), req.CaseID)
		if err != nil {
			slog.Error("Failed to load case record", "caseId", req.CaseID, "error", err)
			writeError(w, err)
			return
		}
		record = loaded
	}

	writeJSON(w, http.StatusOK, a.Validator.Validate(record, req.TemplateType))
}

// UpdateStatus moves a document to a new lifecycle status.
func (a *App) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, err := a.Status.UpdateStatus(r.Context(), req)
	if err != nil {
		kind := models.KindOf(err)
		writeJSON(w, kind.HTTPStatus(), models.UpdateStatusResponse{Error: err.Error(), ErrorKind: kind})
		return
	}
	writeJSON(w, http.StatusOK, models.UpdateStatusResponse{Success: true, Document: doc})
}

// StatusHistory lists the status changes of ?documentId=, oldest first.
func (a *App) StatusHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, fmt.Errorf("%w: method %s not allowed", models.ErrInvalidInput, r.Method))
		return
	}
	id := r.URL.Query().Get("documentId")

	history, err := a.Status.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if history == nil {
		history = []models.StatusHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, models.StatusHistoryResponse{DocumentID: id, History: history})
}

// InspectTemplate cross-checks an uploaded template against its mapping.
// Objects that are not templates are ignored.
func (a *App) InspectTemplate(ctx context.Context, e cloudevents.Event) error {
	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	logCtx := slog.With("bucket", gcsEvent.Bucket, "object", gcsEvent.Name, "eventId", e.ID())

	file, ok := a.owns(gcsEvent.Bucket, gcsEvent.Name)
	if !ok {
		logCtx.Info("Object is not a template. Skipping.")
		return nil
	}

	reports, err := a.Inspector.InspectFile(ctx, file, fmt.Sprintf("gs://%s/%s", gcsEvent.Bucket, gcsEvent.Name))
	if errors.Is(err, models.ErrNotFound) {
		logCtx.Warn("Template vanished before inspection. Skipping.", "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	for _, report := range reports {
		logCtx.Info("Template inspected.",
			"templateType", report.TemplateType,
			"pdfFields", report.PDFFieldCount,
			"mapped", report.MappedCount,
			"missing", len(report.MissingInPDF),
			"unmapped", len(report.Unmapped),
		)
	}
	return nil
}
