package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polishcitizenship/docfill/internal/memory"
	"github.com/polishcitizenship/docfill/internal/models"
)

func adultRecord() models.Record {
	return models.Record{
		"applicant_first_name":      "Jan",
		"applicant_last_name":       "Kowalski",
		"applicant_passport_number": "AB1234567",
		"applicant_date_of_birth":   "1980-05-12",
		"applicant_address":         "ul. Długa 1, Kraków",
		"poa_date":                  "2025-01-15",
	}
}

type harness struct {
	store     *memory.Store
	filler    *fakeFiller
	generator *Generator
}

func newHarness(t *testing.T, objects ObjectStore, config GeneratorConfig) *harness {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.PutRecord(context.Background(), "case-1", adultRecord()))

	filler := &fakeFiller{}
	if config.CallTimeout == 0 {
		config.CallTimeout = time.Second
	}
	g := NewGenerator(GeneratorDeps{
		Templates: templatesFor("poa-adult.pdf", "poa-minor.pdf", "poa-spouses.pdf", "poa-combined.pdf", "family-tree.pdf"),
		Cases:     store,
		Documents: store,
		Filler:    filler,
		Delivery:  NewDelivery(objects, "generated/", 45*time.Minute, time.Second),
	}, config)
	return &harness{store: store, filler: filler, generator: g}
}

func TestGenerate_SignedURL(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewStore()
	h := newHarness(t, objects, GeneratorConfig{})

	resp, err := h.generator.Generate(ctx, models.FillPDFRequest{CaseID: "case-1", TemplateType: "poa-adult"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.URL)
	assert.Empty(t, resp.PDF, "a signed link replaces the inline payload")
	require.NotNil(t, resp.ExpiresAt)
	assert.Equal(t, "poa-adult_case-1.pdf", resp.Filename)
	assert.Equal(t, 16, resp.TotalFields)
	assert.Equal(t, 7, resp.FieldsFilledCount)
	assert.Equal(t, 44, resp.FillRate)

	doc, err := h.store.GetDocument(ctx, resp.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerated, doc.Status)
	assert.Equal(t, "case-1", doc.CaseID)
	assert.Equal(t, resp.FillRate, doc.FillRate)
	assert.True(t, strings.HasPrefix(doc.StorageKey, "generated/poa-adult/case-1/"))

	// the stored object is the rendered file, byte for byte
	stored, ok := objects.Object(doc.StorageKey)
	require.True(t, ok)
	rendered, err := h.generator.Render(ctx, mustLookup(t, "poa-adult"), adultRecord())
	require.NoError(t, err)
	assert.Equal(t, rendered.PDF, stored)
	assert.Equal(t, ContentHash(stored), doc.ContentHash)

	assert.Equal(t, "Jan Kowalski", h.filler.last["dorosly_imie_nazwisko"])
	assert.Equal(t, "15", h.filler.last["dorosly_data_dzien"])
}

func TestGenerate_Idempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, GeneratorConfig{})
	req := models.FillPDFRequest{CaseID: "case-1", TemplateType: "poa-adult"}

	first, err := h.generator.Generate(ctx, req)
	require.NoError(t, err)
	second, err := h.generator.Generate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.FieldsFilledCount, second.FieldsFilledCount)
	assert.Equal(t, first.FillRate, second.FillRate)
	assert.Equal(t, first.PDF, second.PDF)
	assert.NotEqual(t, first.DocumentID, second.DocumentID)
}

func TestGenerate_CombinedTemplate(t *testing.T) {
	h := newHarness(t, nil, GeneratorConfig{})

	resp, err := h.generator.Generate(context.Background(), models.FillPDFRequest{CaseID: "case-1", TemplateType: "poa-combined"})
	require.NoError(t, err)

	total := 0
	for _, typ := range []string{"poa-adult", "poa-minor", "poa-spouses"} {
		total += mustLookup(t, typ).TotalFields()
	}
	assert.Equal(t, total, resp.TotalFields)
	assert.Len(t, h.filler.last, total)
	assert.Equal(t, "Jan Kowalski", h.filler.last["dorosly_imie_nazwisko"])
	assert.Equal(t, "Jan Kowalski", h.filler.last["maloletni_rodzic_imie_nazwisko"])
	assert.Equal(t, "Jan Kowalski", h.filler.last["malzonkowie_maz_imie_nazwisko"])
}

func TestGenerate_DoesNotMutateRecord(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, GeneratorConfig{})

	_, err := h.generator.Generate(ctx, models.FillPDFRequest{CaseID: "case-1", TemplateType: "poa-adult"})
	require.NoError(t, err)

	record, err := h.store.GetRecord(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, adultRecord(), record)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		req      models.FillPDFRequest
		setup    func(h *harness)
		wantKind models.Kind
	}{
		{
			name:     "unknown template",
			req:      models.FillPDFRequest{CaseID: "case-1", TemplateType: "does-not-exist"},
			wantKind: models.KindNotFound,
		},
		{
			name:     "missing case",
			req:      models.FillPDFRequest{CaseID: "case-404", TemplateType: "poa-adult"},
			wantKind: models.KindNotFound,
		},
		{
			name:     "missing template file",
			req:      models.FillPDFRequest{CaseID: "case-1", TemplateType: "citizenship"},
			wantKind: models.KindNotFound,
		},
		{
			name:     "empty request",
			req:      models.FillPDFRequest{},
			wantKind: models.KindInvalidInput,
		},
		{
			name:     "fill error",
			req:      models.FillPDFRequest{CaseID: "case-1", TemplateType: "poa-adult"},
			setup:    func(h *harness) { h.filler.fillErr = errors.New("corrupt xref table") },
			wantKind: models.KindGenerationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil, GeneratorConfig{})
			if tt.setup != nil {
				tt.setup(h)
			}

			resp, err := h.generator.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Equal(t, tt.wantKind, models.KindOf(err))

			failed := FailedFill(err)
			assert.False(t, failed.Success)
			assert.Equal(t, tt.wantKind, failed.ErrorKind)
			assert.NotEmpty(t, failed.Error)
		})
	}
}

func TestGenerate_TemplateSourceError(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.PutRecord(context.Background(), "case-1", adultRecord()))
	g := NewGenerator(GeneratorDeps{
		Templates: fakeTemplates{err: errors.New("connection reset")},
		Cases:     store,
		Filler:    &fakeFiller{},
	}, GeneratorConfig{CallTimeout: time.Second})

	_, err := g.Generate(context.Background(), models.FillPDFRequest{CaseID: "case-1", TemplateType: "poa-adult"})
	assert.ErrorIs(t, err, models.ErrGenerationFailure)
}

func TestGenerate_RequireValid(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, GeneratorConfig{RequireValid: true})
	record := adultRecord()
	delete(record, "applicant_passport_number")
	require.NoError(t, h.store.PutRecord(ctx, "case-2", record))

	_, err := h.generator.Generate(ctx, models.FillPDFRequest{CaseID: "case-2", TemplateType: "poa-adult"})
	require.ErrorIs(t, err, models.ErrValidationFailure)

	failed := FailedFill(err)
	assert.Equal(t, models.KindValidationFailure, failed.ErrorKind)
	assert.Equal(t, []string{"applicant_passport_number"}, failed.MissingFields)
	assert.Nil(t, h.filler.last, "no fill is attempted")

	resp, err := h.generator.Generate(ctx, models.FillPDFRequest{CaseID: "case-1", TemplateType: "poa-adult"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestGenerate_InlineFallback(t *testing.T) {
	tests := []struct {
		name      string
		objects   ObjectStore
		wantKeyed bool
	}{
		{"no object store", nil, false},
		{"upload fails", &flakyObjects{putErr: errors.New("bucket missing")}, false},
		{"signing fails", &flakyObjects{signErr: errors.New("no signer")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, tt.objects, GeneratorConfig{})

			resp, err := h.generator.Generate(ctx, models.FillPDFRequest{CaseID: "case-1", TemplateType: "poa-adult"})
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.Empty(t, resp.URL)
			assert.Nil(t, resp.ExpiresAt)
			assert.Equal(t, "poa-adult_case-1.pdf", resp.Filename)

			decoded, err := base64.StdEncoding.DecodeString(resp.PDF)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(decoded), "%PDF-template:poa-adult.pdf"))

			doc, err := h.store.GetDocument(ctx, resp.DocumentID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeyed, doc.StorageKey != "")
		})
	}
}

func TestGenerate_StatusRecordFailureIsNotFatal(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.PutRecord(context.Background(), "case-1", adultRecord()))
	g := NewGenerator(GeneratorDeps{
		Templates: templatesFor("poa-adult.pdf"),
		Cases:     store,
		Documents: failingDocuments{},
		Filler:    &fakeFiller{},
	}, GeneratorConfig{CallTimeout: time.Second})

	resp, err := g.Generate(context.Background(), models.FillPDFRequest{CaseID: "case-1", TemplateType: "poa-adult"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.DocumentID)
	assert.NotEmpty(t, resp.PDF)
}

func TestGenerateBatch(t *testing.T) {
	h := newHarness(t, nil, GeneratorConfig{BatchConcurrency: 2, BatchDelay: time.Millisecond})
	reqs := []models.FillPDFRequest{
		{CaseID: "case-1", TemplateType: "poa-adult"},
		{CaseID: "case-1", TemplateType: "does-not-exist"},
		{CaseID: "case-404", TemplateType: "poa-minor"},
		{CaseID: "case-1", TemplateType: "family-tree"},
	}

	results := h.generator.GenerateBatch(context.Background(), reqs)

	require.Len(t, results, 4)
	assert.True(t, results[0].Success)
	assert.Equal(t, "poa-adult_case-1.pdf", results[0].Filename)
	assert.False(t, results[1].Success)
	assert.Equal(t, models.KindNotFound, results[1].ErrorKind)
	assert.False(t, results[2].Success)
	assert.Equal(t, models.KindNotFound, results[2].ErrorKind)
	assert.True(t, results[3].Success)
	assert.Equal(t, "family-tree_case-1.pdf", results[3].Filename)
}

func TestGenerateBatch_CancelledContext(t *testing.T) {
	h := newHarness(t, nil, GeneratorConfig{BatchConcurrency: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := h.generator.GenerateBatch(ctx, []models.FillPDFRequest{
		{CaseID: "case-1", TemplateType: "poa-adult"},
		{CaseID: "case-1", TemplateType: "family-tree"},
	})

	require.Len(t, results, 2)
	for _, res := range results {
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "request not started")
		assert.Equal(t, models.KindInternal, res.ErrorKind)
	}
}

func TestDelivery_Keys(t *testing.T) {
	d := NewDelivery(nil, "generated/", time.Minute, time.Second)
	d.newID = func() string { return "fixed" }

	assert.Equal(t, "generated/poa-adult/case_1/fixed.pdf", d.ObjectKey("poa-adult", "case/1"))
	assert.Equal(t, "poa-adult_case_1.pdf", Filename("poa-adult", "case 1"))

	_, err := d.Deliver(context.Background(), testLogger(), "poa-adult", "c", nil)
	assert.ErrorIs(t, err, models.ErrDeliveryFailure)
}

func TestDelivery_ExpiresAt(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDelivery(&flakyObjects{}, "generated/", 45*time.Minute, time.Second)
	d.now = func() time.Time { return issued }

	out, err := d.Deliver(context.Background(), testLogger(), "poa-adult", "c1", []byte("%PDF"))
	require.NoError(t, err)
	require.NotNil(t, out.ExpiresAt)
	assert.Equal(t, issued.Add(45*time.Minute), *out.ExpiresAt)
	assert.False(t, out.Inline())
	assert.Empty(t, out.PDF)
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", ContentHash([]byte("test")))
	assert.Len(t, ContentHash(nil), 64)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, models.ErrGenerationFailure))

	nf := fmt.Errorf("x: %w", models.ErrNotFound)
	assert.Equal(t, nf, classify(nf, models.ErrGenerationFailure))

	wrapped := classify(errors.New("boom"), models.ErrDeliveryFailure)
	assert.ErrorIs(t, wrapped, models.ErrDeliveryFailure)
	assert.Contains(t, wrapped.Error(), "boom")
}
