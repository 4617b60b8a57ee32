// Package pdf reads and fills AcroForm templates with pdfcpu.
package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/polishcitizenship/docfill/internal/mapping"
	"github.com/polishcitizenship/docfill/internal/models"
)

// Field kinds as they appear in pdfcpu's form JSON.
const (
	kindText     = "textfield"
	kindDate     = "datefield"
	kindCheckbox = "checkbox"
	kindRadio    = "radiobuttongroup"
	kindCombo    = "combobox"
	kindList     = "listbox"
)

var fieldKinds = []string{kindText, kindDate, kindCheckbox, kindRadio, kindCombo, kindList}

// Filler is the pdfcpu-backed form engine.
type Filler struct {
	conf *model.Configuration
}

// NewFiller returns a Filler with pdfcpu's relaxed validation, which real
// government templates usually need.
func NewFiller() *Filler {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Filler{conf: conf}
}

// FieldNames lists the form field names of a template, sorted.
func (f *Filler) FieldNames(ctx context.Context, pdf []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := f.export(pdf)
	if err != nil {
		return nil, err
	}
	return fieldNames(raw)
}

// Fill writes values into the form fields of pdf and returns the new file.
// Values for fields the template lacks are ignored; the input is not modified.
func (f *Filler) Fill(ctx context.Context, pdf []byte, values map[string]string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := f.export(pdf)
	if err != nil {
		return nil, err
	}
	filled, _, err := applyValues(raw, values)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(pdf), bytes.NewReader(filled), &out, f.conf); err != nil {
		return nil, fmt.Errorf("%w: fill form: %v", models.ErrGenerationFailure, err)
	}
	return out.Bytes(), nil
}

func (f *Filler) export(pdf []byte) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty template", models.ErrGenerationFailure)
	}
	var buf bytes.Buffer
	if err := api.ExportFormJSON(bytes.NewReader(pdf), &buf, "template.pdf", f.conf); err != nil {
		return nil, fmt.Errorf("%w: export form: %v", models.ErrGenerationFailure, err)
	}
	return buf.Bytes(), nil
}

func decodeForms(raw []byte) (map[string]any, []map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: decode form json: %v", models.ErrGenerationFailure, err)
	}
	list, _ := doc["forms"].([]any)
	forms := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if form, ok := item.(map[string]any); ok {
			forms = append(forms, form)
		}
	}
	return doc, forms, nil
}

func eachField(forms []map[string]any, fn func(kind string, field map[string]any)) {
	for _, form := range forms {
		for _, kind := range fieldKinds {
			fields, _ := form[kind].([]any)
			for _, item := range fields {
				if field, ok := item.(map[string]any); ok {
					fn(kind, field)
				}
			}
		}
	}
}

func fieldNames(raw []byte) ([]string, error) {
	_, forms, err := decodeForms(raw)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	names := []string{}
	eachField(forms, func(_ string, field map[string]any) {
		name, _ := field["name"].(string)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	})
	sort.Strings(names)
	return names, nil
}

// applyValues sets values on the exported form JSON and reports how many
// fields were written.
func applyValues(raw []byte, values map[string]string) ([]byte, int, error) {
	doc, forms, err := decodeForms(raw)
	if err != nil {
		return nil, 0, err
	}
	applied := 0
	eachField(forms, func(kind string, field map[string]any) {
		name, _ := field["name"].(string)
		v, ok := values[name]
		if !ok {
			return
		}
		switch kind {
		case kindCheckbox:
			field["value"] = Truthy(v)
		case kindDate:
			format, _ := field["format"].(string)
			field["value"] = dateValue(v, format)
		case kindList:
			if v == "" {
				field["values"] = []string{}
			} else {
				field["values"] = []string{v}
			}
		default:
			field["value"] = v
		}
		applied++
	})

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: encode form json: %v", models.ErrGenerationFailure, err)
	}
	return out, applied, nil
}

// pdfcpu date formats use dd, mm, yy and yyyy tokens.
var dateTokens = strings.NewReplacer("yyyy", "2006", "yy", "06", "mm", "01", "dd", "02", "m", "1", "d", "2")

// dateValue renders v in the date format of the field. Values that are not
// dates, and fields without a format, keep v unchanged.
func dateValue(v, format string) string {
	if format == "" || strings.TrimSpace(v) == "" {
		return v
	}
	t, ok := mapping.AsDate(v)
	if !ok {
		return v
	}
	return t.Format(dateTokens.Replace(strings.ToLower(format)))
}

// Truthy reports whether a mapped value ticks a checkbox.
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "tak", "1", "x", "on":
		return true
	default:
		return false
	}
}
