package functions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polishcitizenship/docfill/internal/config"
	"github.com/polishcitizenship/docfill/internal/models"
	"github.com/polishcitizenship/docfill/internal/sqlite"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Store = config.StoreMemory
	cfg.TemplateSource = config.SourceDir
	cfg.TemplatesDir = t.TempDir()
	cfg.Delivery = config.DeliveryInline
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBootstrap_Local(t *testing.T) {
	cfg := localConfig(t)

	app, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	assert.NotNil(t, app.Generator)
	file, ok := app.owns("any", "templates/poa-adult.pdf")
	assert.True(t, ok)
	assert.Equal(t, "poa-adult.pdf", file)
}

func TestBootstrap_SQLite(t *testing.T) {
	cfg := localConfig(t)
	cfg.Store = config.StoreSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "docfill.db")

	app, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, app.Store)
	require.NoError(t, app.Close())
	assert.NoError(t, app.Close(), "second close is a no-op")
}

func TestBootstrap_UnknownBackends(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"store", func(c *config.Config) { c.Store = "postgres" }},
		{"template source", func(c *config.Config) { c.TemplateSource = "ftp" }},
		{"delivery", func(c *config.Config) { c.Delivery = "email" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := localConfig(t)
			tt.mutate(cfg)
			_, err := Bootstrap(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_StrictTransitions(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.StrictTransitions = true })
	id := generateDocument(t, app)
	ctx := context.Background()

	_, err := app.Status.UpdateStatus(ctx, models.UpdateStatusRequest{DocumentID: id, Status: "archived"})
	require.NoError(t, err)
	_, err = app.Status.UpdateStatus(ctx, models.UpdateStatusRequest{DocumentID: id, Status: "generated"})
	assert.ErrorIs(t, err, models.ErrTransitionRejected)
}
