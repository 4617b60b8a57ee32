package mapping

import (
	"math"
	"sort"

	"github.com/polishcitizenship/docfill/internal/models"
)

// Field binds one PDF form field to a record path.
type Field struct {
	PDFName string
	Path    Path
}

// Page is one field-mapping table. Single-page templates have one page;
// combined templates apply several pages against the same record.
type Page struct {
	Name   string
	Fields []Field
}

// Template describes one PDF template variant. Templates are defined at
// build time and never mutated.
type Template struct {
	Type     string
	File     string
	Required []string
	Pages    []Page
}

// TotalFields is the number of mapped PDF fields across all pages.
func (t Template) TotalFields() int {
	n := 0
	for _, p := range t.Pages {
		n += len(p.Fields)
	}
	return n
}

// FieldNames lists the mapped PDF field names in table order.
func (t Template) FieldNames() []string {
	names := make([]string, 0, t.TotalFields())
	for _, p := range t.Pages {
		for _, f := range p.Fields {
			names = append(names, f.PDFName)
		}
	}
	return names
}

// Fill is the outcome of applying a template's mapping to a record.
type Fill struct {
	Values map[string]string
	Filled int
	Total  int
}

// Rate is the fill rate of f in percent.
func (f Fill) Rate() int {
	return FillRate(f.Filled, f.Total)
}

// Apply resolves every mapped field of t against record, page by page.
// The record is only read.
func Apply(t Template, record models.Record) Fill {
	fill := Fill{Values: make(map[string]string, t.TotalFields())}
	for _, page := range t.Pages {
		for _, f := range page.Fields {
			v := Resolve(f.Path, record)
			fill.Values[f.PDFName] = v
			fill.Total++
			if v != "" {
				fill.Filled++
			}
		}
	}
	return fill
}

// FillRate returns round(filled / total * 100), or 0 when total is 0.
func FillRate(filled, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(filled) / float64(total) * 100))
}

var registry = map[string]Template{}

func register(t Template) {
	if _, dup := registry[t.Type]; dup {
		panic("mapping: duplicate template " + t.Type)
	}
	registry[t.Type] = t
}

// Lookup returns the template registered under templateType.
func Lookup(templateType string) (Template, bool) {
	t, ok := registry[templateType]
	return t, ok
}

// Types lists the registered template types, sorted.
func Types() []string {
	types := make([]string, 0, len(registry))
	for k := range registry {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// ByFile returns the templates backed by file, sorted by type.
func ByFile(file string) []Template {
	var out []Template
	for _, typ := range Types() {
		if t := registry[typ]; t.File == file {
			out = append(out, t)
		}
	}
	return out
}

// RequiredFields returns the required-field list of templateType, or nil
// for an unknown type.
func RequiredFields(templateType string) []string {
	return registry[templateType].Required
}

// mergeRequired concatenates required lists, keeping first occurrences.
func mergeRequired(lists ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range lists {
		for _, k := range l {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
