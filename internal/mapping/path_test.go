package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polishcitizenship/docfill/internal/models"
)

func TestResolve_Direct(t *testing.T) {
	record := models.Record{
		"name":   "Jan",
		"age":    float64(42),
		"count":  int64(3),
		"ok":     true,
		"empty":  "",
		"nilled": nil,
	}

	assert.Equal(t, "Jan", Resolve(D("name"), record))
	assert.Equal(t, "42", Resolve(D("age"), record))
	assert.Equal(t, "3", Resolve(D("count"), record))
	assert.Equal(t, "true", Resolve(D("ok"), record))
	assert.Equal(t, "", Resolve(D("empty"), record))
	assert.Equal(t, "", Resolve(D("nilled"), record))
	assert.Equal(t, "", Resolve(D("absent"), record))
}

func TestResolve_Concat(t *testing.T) {
	tests := []struct {
		name   string
		record models.Record
		want   string
	}{
		{"both present", models.Record{"a": "Jan", "b": "Kowalski"}, "Jan Kowalski"},
		{"only first", models.Record{"a": "Jan"}, "Jan"},
		{"only second", models.Record{"b": "Kowalski"}, "Kowalski"},
		{"first empty string", models.Record{"a": "", "b": "Kowalski"}, "Kowalski"},
		{"neither", models.Record{}, ""},
		{"nil record", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(C("a", "b"), tt.record))
		})
	}
}

func TestResolve_Nested(t *testing.T) {
	date := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		record models.Record
		path   Path
		want   string
	}{
		{"time day", models.Record{"d": date}, N("d", "day"), "07"},
		{"time month", models.Record{"d": date}, N("d", "month"), "03"},
		{"time year", models.Record{"d": date}, N("d", "year"), "2024"},
		{"iso string", models.Record{"d": "2024-03-07"}, N("d", "month"), "03"},
		{"polish string", models.Record{"d": "07.03.2024"}, N("d", "day"), "07"},
		{"rfc3339 string", models.Record{"d": "2024-03-07T10:00:00Z"}, N("d", "year"), "2024"},
		{"unknown date part", models.Record{"d": date}, N("d", "week"), ""},
		{"map child", models.Record{"addr": map[string]any{"city": "Kraków"}}, N("addr", "city"), "Kraków"},
		{"map child missing", models.Record{"addr": map[string]any{}}, N("addr", "city"), ""},
		{"parent missing", models.Record{}, N("d", "day"), ""},
		{"parent not structured", models.Record{"d": "not a date"}, N("d", "day"), ""},
		{"parent number", models.Record{"d": 12}, N("d", "day"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, Resolve(tt.path, tt.record))
			})
		})
	}
}

func TestResolve_DoesNotMutateRecord(t *testing.T) {
	record := models.Record{"a": "Jan", "d": "2024-03-07"}
	_ = Resolve(C("a", "missing"), record)
	_ = Resolve(N("d", "day"), record)
	assert.Equal(t, models.Record{"a": "Jan", "d": "2024-03-07"}, record)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.5", Format(1.5))
	assert.Equal(t, "07.03.2024", Format(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", Format(time.Time{}))
	assert.Equal(t, "", Format(map[string]any{"x": 1}))
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    Path
		wantErr bool
	}{
		{in: "applicant_first_name", want: Direct{Key: "applicant_first_name"}},
		{in: "applicant_first_name|applicant_last_name", want: Concat{First: "applicant_first_name", Second: "applicant_last_name"}},
		{in: "submission_date.day", want: Nested{Key: "submission_date", Sub: "day"}},
		{in: "", wantErr: true},
		{in: "a|", wantErr: true},
		{in: "a|b|c", wantErr: true},
		{in: ".day", wantErr: true},
		{in: "a.b.c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"a"}, Keys(D("a")))
	assert.Equal(t, []string{"a", "b"}, Keys(C("a", "b")))
	assert.Equal(t, []string{"d"}, Keys(N("d", "day")))
}
