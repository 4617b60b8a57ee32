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
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP(docfill.ValidateRecordName, docfill.Guard(handleValidateRecord))
}

func main() {}

// handleValidateRecord is the HTTP handler for the pre-flight check.
func handleValidateRecord(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		app, initErr = docfill.FromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: validate-record initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	app.ValidateRecord(w, r)
}
