package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	docfill "github.com/polishcitizenship/docfill/internal/functions"
)

var (
	app     *docfill.App
	once    sync.Once
	initErr error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP(docfill.FillPDFName, docfill.Guard(handleFillPDF))
	functions.HTTP(docfill.FillPDFBatchName, docfill.Guard(handleFillPDFBatch))
}

func main() {}

// ready initializes the application on first use.
func ready(w http.ResponseWriter) bool {
	once.Do(func() {
		app, initErr = docfill.FromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: fill-pdf initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return false
	}
	return true
}

// handleFillPDF fills one template for one case.
func handleFillPDF(w http.ResponseWriter, r *http.Request) {
	if ready(w) {
		app.FillPDF(w, r)
	}
}

// handleFillPDFBatch fills several documents in one call.
func handleFillPDFBatch(w http.ResponseWriter, r *http.Request) {
	if ready(w) {
		app.FillPDFBatch(w, r)
	}
}
