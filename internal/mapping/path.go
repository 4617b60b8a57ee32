// Package mapping holds the static tables that translate PDF form-field
// names into values taken from a case record.
package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/polishcitizenship/docfill/internal/models"
)

// Path locates the value of one PDF field in a record. The set of
// implementations is closed: Direct, Concat and Nested.
type Path interface {
	String() string
	isPath()
}

// Direct reads a single flat key.
type Direct struct {
	Key string
}

// Concat joins two flat keys with a single space, skipping absent parts.
type Concat struct {
	First, Second string
}

// Nested reads a sub-component of a structured value, such as the day of a
// date or a key of an embedded map.
type Nested struct {
	Key, Sub string
}

func (Direct) isPath() {}
func (Concat) isPath() {}
func (Nested) isPath() {}

func (p Direct) String() string { return p.Key }
func (p Concat) String() string { return p.First + "|" + p.Second }
func (p Nested) String() string { return p.Key + "." + p.Sub }

// D, C and N are short constructors used by the mapping tables.
func D(key string) Path { return Direct{Key: key} }
func C(first, second string) Path { return Concat{First: first, Second: second} }
func N(key, sub string) Path { return Nested{Key: key, Sub: sub} }

// ParsePath reads the "a", "a|b" and "a.b" notation used in exported
// mapping sheets. Mapping tables never go through it.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty field path", models.ErrInvalidInput)
	}
	if first, second, ok := strings.Cut(s, "|"); ok {
		if first == "" || second == "" || strings.Contains(second, "|") {
			return nil, fmt.Errorf("%w: malformed concatenation %q", models.ErrInvalidInput, s)
		}
		return Concat{First: first, Second: second}, nil
	}
	if key, sub, ok := strings.Cut(s, "."); ok {
		if key == "" || sub == "" || strings.Contains(sub, ".") {
			return nil, fmt.Errorf("%w: malformed nested path %q", models.ErrInvalidInput, s)
		}
		return Nested{Key: key, Sub: sub}, nil
	}
	return Direct{Key: s}, nil
}

// Keys returns the record keys a path reads.
func Keys(p Path) []string {
	switch p := p.(type) {
	case Direct:
		return []string{p.Key}
	case Concat:
		return []string{p.First, p.Second}
	case Nested:
		return []string{p.Key}
	default:
		return nil
	}
}

// Resolve evaluates p against record. Any absent level yields "".
func Resolve(p Path, record models.Record) string {
	switch p := p.(type) {
	case Direct:
		v, _ := record.Value(p.Key)
		return Format(v)
	case Concat:
		var parts []string
		for _, key := range []string{p.First, p.Second} {
			v, _ := record.Value(key)
			if s := Format(v); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case Nested:
		parent, ok := record.Value(p.Key)
		if !ok {
			return ""
		}
		return component(parent, p.Sub)
	default:
		return ""
	}
}

func component(parent any, sub string) string {
	switch v := parent.(type) {
	case map[string]any:
		return Format(v[sub])
	case models.Record:
		return Format(v[sub])
	case map[string]string:
		return v[sub]
	}
	date, ok := AsDate(parent)
	if !ok {
		return ""
	}
	switch sub {
	case "day":
		return fmt.Sprintf("%02d", date.Day())
	case "month":
		return fmt.Sprintf("%02d", int(date.Month()))
	case "year":
		return fmt.Sprintf("%04d", date.Year())
	default:
		return ""
	}
}

// DisplayDateLayout is the date layout printed into the forms.
const DisplayDateLayout = "02.01.2006"

var dateLayouts = []string{
	"2006-01-02",
	DisplayDateLayout,
	"02/01/2006",
	time.RFC3339,
	time.RFC3339Nano,
}

// AsDate interprets v as a calendar date.
func AsDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return *d, true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Format renders a record value as form text.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(DisplayDateLayout)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Format(DisplayDateLayout)
	case fmt.Stringer:
		return v.String()
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
