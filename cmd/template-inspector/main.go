package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

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

	// Triggered by object finalization in the templates bucket.
	functions.CloudEvent(docfill.InspectTemplateName, inspectTemplate)
}

func main() {}

// inspectTemplate is the Cloud Function entry point.
func inspectTemplate(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		app, initErr = docfill.FromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}
	return app.InspectTemplate(ctx, e)
}
