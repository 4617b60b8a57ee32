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

	functions.HTTP(docfill.UpdateStatusName, docfill.Guard(withApp(func(w http.ResponseWriter, r *http.Request) {
		app.UpdateStatus(w, r)
	})))
	functions.HTTP(docfill.StatusHistoryName, docfill.Guard(withApp(func(w http.ResponseWriter, r *http.Request) {
		app.StatusHistory(w, r)
	})))
}

func main() {}

// withApp initializes the application before running h.
func withApp(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			app, initErr = docfill.FromEnv(context.Background())
		})
		if initErr != nil {
			slog.Error("Critical: update-status initialization failed", "error", initErr)
			http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
			return
		}
		h(w, r)
	}
}
