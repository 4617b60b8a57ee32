package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/polishcitizenship/docfill/internal/mapping"
	"github.com/polishcitizenship/docfill/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func mustLookup(t *testing.T, templateType string) mapping.Template {
	t.Helper()
	tmpl, ok := mapping.Lookup(templateType)
	require.True(t, ok, templateType)
	return tmpl
}

// fakeTemplates serves template files from memory.
type fakeTemplates struct {
	files map[string][]byte
	err   error
}

func (f fakeTemplates) Load(_ context.Context, file string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.files[file]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", file, models.ErrNotFound)
	}
	return data, nil
}

func templatesFor(files ...string) fakeTemplates {
	t := fakeTemplates{files: map[string][]byte{}}
	for _, f := range files {
		t.files[f] = []byte("%PDF-template:" + f)
	}
	return t
}

// fakeFiller renders values as sorted key=value lines after the template
// bytes, which is deterministic for equal input.
type fakeFiller struct {
	names   []string
	fillErr error

	mu   sync.Mutex
	last map[string]string
}

func (f *fakeFiller) FieldNames(_ context.Context, pdf []byte) ([]string, error) {
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, errors.New("not a pdf")
	}
	return f.names, nil
}

func (f *fakeFiller) Fill(_ context.Context, pdf []byte, values map[string]string) ([]byte, error) {
	if f.fillErr != nil {
		return nil, f.fillErr
	}
	f.mu.Lock()
	f.last = values
	f.mu.Unlock()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	buf.Write(pdf)
	for _, k := range keys {
		fmt.Fprintf(&buf, "\n%s=%s", k, values[k])
	}
	return buf.Bytes(), nil
}

// flakyObjects fails uploads or signing on demand.
type flakyObjects struct {
	putErr  error
	signErr error
	puts    map[string][]byte
}

func (f *flakyObjects) Put(_ context.Context, key string, data []byte, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[key] = data
	return nil
}

func (f *flakyObjects) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed.example/" + key, nil
}

// failingDocuments refuses to create status records.
type failingDocuments struct{}

func (failingDocuments) CreateDocument(context.Context, *models.DocumentStatus) error {
	return errors.New("firestore unavailable")
}

func (failingDocuments) GetDocument(context.Context, string) (*models.DocumentStatus, error) {
	return nil, models.ErrNotFound
}

func (failingDocuments) UpdateStatus(context.Context, string, models.StatusUpdate) (*models.DocumentStatus, error) {
	return nil, models.ErrNotFound
}

func (failingDocuments) History(context.Context, string) ([]models.StatusHistoryEntry, error) {
	return nil, models.ErrNotFound
}

type failingReports struct{}

func (failingReports) SaveReport(context.Context, models.TemplateReport) error {
	return errors.New("write failed")
}
