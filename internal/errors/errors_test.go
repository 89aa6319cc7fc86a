package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestScraperErrorFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		url        string
		statusCode int
		err        error
		want       string
	}{
		{
			name:       "with status code",
			url:        "https://web.dm.uba.ar/horarios",
			statusCode: 404,
			err:        ErrNotFound,
			want:       "status=404",
		},
		{
			name: "without status code",
			url:  "https://ic.fcen.uba.ar/materias",
			err:  stderrors.New("connection refused"),
			want: "url=https://ic.fcen.uba.ar/materias",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewScraperError(tt.url, tt.statusCode, tt.err)
			if !strings.Contains(e.Error(), tt.want) {
				t.Errorf("Error() = %q, want substring %q", e.Error(), tt.want)
			}
		})
	}
}

func TestScraperErrorUnwrap(t *testing.T) {
	t.Parallel()

	e := NewScraperError("https://www.dc.uba.ar/", 0, ErrNoSchedules)
	wrapped := fmt.Errorf("dc scrape: %w", e)

	if !stderrors.Is(wrapped, ErrNoSchedules) {
		t.Error("expected errors.Is to find ErrNoSchedules through ScraperError")
	}

	var se *ScraperError
	if !stderrors.As(wrapped, &se) {
		t.Fatal("expected errors.As to find *ScraperError")
	}
	if se.URL != "https://www.dc.uba.ar/" {
		t.Errorf("URL = %q", se.URL)
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	e := NewValidationError("hora_inicio", "must be HH:MM")
	if !strings.Contains(e.Error(), "hora_inicio") {
		t.Errorf("Error() = %q, want field name", e.Error())
	}
}
