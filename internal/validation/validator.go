// Package validation implements the pre-flight check run on a case record
// before a template is filled.
package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/polishcitizenship/docfill/internal/mapping"
	"github.com/polishcitizenship/docfill/internal/models"
)

// Validator checks records against the required-field list of a template.
// The zero value is ready to use.
type Validator struct {
	// Now is the clock used for future-date checks. Defaults to time.Now.
	Now func() time.Time
}

// New returns a Validator on the wall clock.
func New() *Validator {
	return &Validator{Now: time.Now}
}

// Validate never fails. An unknown template has no required fields and is
// reported valid with full coverage.
func (v *Validator) Validate(record models.Record, templateType string) models.ValidationResult {
	required := mapping.RequiredFields(templateType)

	res := models.ValidationResult{
		MissingFields: []string{},
		Warnings:      v.warnings(record),
	}
	present := 0
	for _, key := range required {
		if record.Present(key) {
			present++
			continue
		}
		res.MissingFields = append(res.MissingFields, key)
	}
	res.IsValid = len(res.MissingFields) == 0
	res.Coverage = coverage(present, len(required))
	return res
}

// Check is Validate as an error: a *models.ValidationError when required
// fields are missing.
func (v *Validator) Check(record models.Record, templateType string) error {
	res := v.Validate(record, templateType)
	if res.IsValid {
		return nil
	}
	return &models.ValidationError{TemplateType: templateType, MissingFields: res.MissingFields}
}

func coverage(present, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

func (v *Validator) warnings(record models.Record) []string {
	now := time.Now
	if v != nil && v.Now != nil {
		now = v.Now
	}
	today := now()

	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	warnings := []string{}
	for _, key := range keys {
		lower := strings.ToLower(key)
		switch {
		case strings.HasSuffix(lower, "email"):
			if s, ok := record.String(key); ok && !strings.Contains(s, "@") {
				warnings = append(warnings, fmt.Sprintf("%s: invalid email address %q", key, s))
			}
		case strings.HasSuffix(lower, "date_of_birth"), strings.HasSuffix(lower, "birth_date"):
			raw, ok := record.Value(key)
			if !ok {
				continue
			}
			if d, ok := mapping.AsDate(raw); ok && d.After(today) {
				warnings = append(warnings, fmt.Sprintf("%s: date of birth %s is in the future", key, d.Format(mapping.DisplayDateLayout)))
			}
		}
	}
	return warnings
}
