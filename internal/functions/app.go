// Package functions wires the docfill components behind the Cloud Function
// entry points and the local server.
package functions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/polishcitizenship/docfill/internal/awss3"
	"github.com/polishcitizenship/docfill/internal/config"
	"github.com/polishcitizenship/docfill/internal/gcp"
	"github.com/polishcitizenship/docfill/internal/memory"
	"github.com/polishcitizenship/docfill/internal/pdf"
	"github.com/polishcitizenship/docfill/internal/services"
	"github.com/polishcitizenship/docfill/internal/sqlite"
	"github.com/polishcitizenship/docfill/internal/validation"
)

// RecordStore is the persistence the functions need: case records,
// document status records and template reports.
type RecordStore interface {
	services.CaseStore
	services.DocumentStore
	services.ReportStore
}

// Deps are the backends an App runs on. Objects may be nil for inline
// delivery. Owns decides which storage events concern templates.
type Deps struct {
	Store     RecordStore
	Templates services.TemplateSource
	Objects   services.ObjectStore
	Filler    services.FormFiller
	Owns      func(bucket, object string) (string, bool)
}

// App holds the services behind every function.
type App struct {
	Config    *config.Config
	Store     RecordStore
	Generator *services.Generator
	Status    *services.StatusTracker
	Validator *validation.Validator
	Inspector *services.Inspector

	owns    func(bucket, object string) (string, bool)
	closers []func() error
}

// New assembles an App from explicit backends.
func New(cfg *config.Config, deps Deps) *App {
	if deps.Filler == nil {
		deps.Filler = pdf.NewFiller()
	}
	if deps.Owns == nil {
		deps.Owns = PrefixOwner("", cfg.TemplatesPrefix)
	}
	validator := validation.New()

	policy := services.PermissiveTransitions
	if cfg.StrictTransitions {
		policy = services.ForwardOnlyTransitions
	}

	delivery := services.NewDelivery(deps.Objects, cfg.OutputPrefix, cfg.SignedURLExpiry, cfg.CallTimeout)
	return &App{
		Config: cfg,
		Store:  deps.Store,
		Generator: services.NewGenerator(services.GeneratorDeps{
			Templates: deps.Templates,
			Cases:     deps.Store,
			Documents: deps.Store,
			Filler:    deps.Filler,
			Delivery:  delivery,
			Validator: validator,
		}, services.GeneratorConfig{
			CallTimeout:      cfg.CallTimeout,
			RequireValid:     cfg.RequireValid,
			BatchConcurrency: cfg.BatchConcurrency,
			BatchDelay:       cfg.BatchDelay,
		}),
		Status:    services.NewStatusTracker(deps.Store, policy, cfg.CallTimeout),
		Validator: validator,
		Inspector: services.NewInspector(deps.Templates, deps.Filler, deps.Store, cfg.CallTimeout),
		owns:      deps.Owns,
	}
}

// Bootstrap creates the backends selected by cfg and returns the App.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	var (
		deps    Deps
		closers []func() error
		gcs     *storage.Client
	)
	fail := func(err error) (*App, error) {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}
	storageClient := func() (*storage.Client, error) {
		if gcs != nil {
			return gcs, nil
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		gcs = client
		closers = append(closers, client.Close)
		return gcs, nil
	}

	switch cfg.Store {
	case config.StoreFirestore:
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			return fail(err)
		}
		store := gcp.NewFirestoreStore(client, gcp.Collections{
			Cases:     cfg.CasesCollection,
			Documents: cfg.DocumentsCollection,
			Reports:   cfg.ReportsCollection,
		})
		closers = append(closers, store.Close)
		deps.Store = store
	case config.StoreSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, store.Close)
		deps.Store = store
	case config.StoreMemory:
		deps.Store = memory.NewStore()
	default:
		return fail(fmt.Errorf("unknown store %q", cfg.Store))
	}

	switch cfg.TemplateSource {
	case config.SourceGCS:
		client, err := storageClient()
		if err != nil {
			return fail(err)
		}
		bucket := gcp.NewTemplateBucket(client, cfg.TemplatesBucket, cfg.TemplatesPrefix)
		deps.Templates = bucket
		deps.Owns = bucket.Owns
	case config.SourceDir:
		deps.Templates = services.DirTemplates{Dir: cfg.TemplatesDir}
	default:
		return fail(fmt.Errorf("unknown template source %q", cfg.TemplateSource))
	}

	switch cfg.Delivery {
	case config.DeliveryGCS:
		client, err := storageClient()
		if err != nil {
			return fail(err)
		}
		deps.Objects = gcp.NewObjectBucket(client, cfg.OutputBucket)
	case config.DeliveryS3:
		store, err := awss3.NewStore(ctx, awss3.Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return fail(err)
		}
		deps.Objects = store
	case config.DeliveryInline:
	default:
		return fail(fmt.Errorf("unknown delivery %q", cfg.Delivery))
	}

	app := New(cfg, deps)
	app.closers = closers
	slog.Info("Application initialized.",
		"store", cfg.Store,
		"templateSource", cfg.TemplateSource,
		"delivery", cfg.Delivery,
		"strictTransitions", cfg.StrictTransitions,
	)
	return app, nil
}

// Close releases the clients opened by Bootstrap.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// PrefixOwner matches template uploads by object prefix. An empty bucket
// matches any bucket.
func PrefixOwner(bucket, prefix string) func(string, string) (string, bool) {
	return func(b, object string) (string, bool) {
		if bucket != "" && b != bucket {
			return "", false
		}
		if !strings.HasPrefix(object, prefix) {
			return "", false
		}
		file := strings.TrimPrefix(object, prefix)
		if file == "" || path.Base(file) != file || !strings.EqualFold(path.Ext(file), ".pdf") {
			return "", false
		}
		return file, true
	}
}

// FromEnv loads the configuration from the environment, installs the
// configured logger as default and bootstraps the App.
func FromEnv(ctx context.Context) (*App, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.NewLogger(os.Stdout))
	return Bootstrap(ctx, cfg)
}
