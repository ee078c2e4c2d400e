package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "campsite/pkg/errors"
)

func TestExtractDateRange(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantSet bool
		wantErr bool
	}{
		{name: "no range", query: "", wantSet: false},
		{name: "full range", query: "?startDate=01/11/2026&endDate=03/11/2026", wantSet: true},
		{name: "only start", query: "?startDate=01/11/2026", wantErr: true},
		{name: "only end", query: "?endDate=01/11/2026", wantErr: true},
		{name: "bad start", query: "?startDate=2026-11-01&endDate=03/11/2026", wantErr: true},
		{name: "bad end", query: "?startDate=01/11/2026&endDate=33/11/2026", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/availabilities"+tt.query, nil)

			got, err := ExtractDateRange(req)
			if tt.wantErr {
				if !apperrors.IsAppError(err) {
					t.Fatalf("expected AppError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsSet() != tt.wantSet {
				t.Errorf("IsSet() = %v, want %v", got.IsSet(), tt.wantSet)
			}
		})
	}
}

func TestExtractDateKey(t *testing.T) {
	for _, value := range []string{"05/11/2026", "2026-11-05"} {
		d, err := ExtractDateKey(value)
		if err != nil {
			t.Fatalf("ExtractDateKey(%q): %v", value, err)
		}
		if d.Key() != "2026-11-05" {
			t.Errorf("ExtractDateKey(%q) = %s", value, d.Key())
		}
	}
	if _, err := ExtractDateKey("tomorrow"); err == nil {
		t.Error("expected error for unparsable date")
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    string
	}{
		{
			name:       "not found",
			err:        apperrors.BookingNotFound("b-1"),
			wantStatus: http.StatusNotFound,
			wantKey:    "error",
		},
		{
			name:       "per date failures",
			err:        apperrors.NewDateErrors(apperrors.NewDateError("01/11/2026", apperrors.CodeAlreadyBooked)),
			wantStatus: http.StatusBadRequest,
			wantKey:    "dateErrors",
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantKey:    "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := WriteError(w, tt.err); err != nil {
				t.Fatalf("WriteError: %v", err)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if _, ok := body[tt.wantKey]; !ok {
				t.Errorf("expected key %q in %s", tt.wantKey, w.Body.String())
			}
		})
	}
}
