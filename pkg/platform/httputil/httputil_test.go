package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "copro/pkg/domain-errors"
	"copro/pkg/platform/sentinel"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
	}{
		{
			name:        "unknown resident",
			err:         dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "resident not found"),
			status:      http.StatusNotFound,
			code:        "not_found",
			description: "resident not found",
		},
		{
			name:        "unit already occupied",
			err:         dErrors.New(dErrors.CodeConflict, "unit A-3-B already has a resident"),
			status:      http.StatusConflict,
			code:        "conflict",
			description: "unit A-3-B already has a resident",
		},
		{
			name:        "missing door",
			err:         dErrors.New(dErrors.CodeValidation, "door is required"),
			status:      http.StatusBadRequest,
			code:        "validation_error",
			description: "door is required",
		},
		{
			name:        "missing apartment component",
			err:         fmt.Errorf("history lookup: %w", dErrors.New(dErrors.CodeBadRequest, "building, floor and door are required")),
			status:      http.StatusBadRequest,
			code:        "bad_request",
			description: "building, floor and door are required",
		},
		{
			name:   "store failure hides its cause",
			err:    dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "failed to update resident"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
		{
			name:   "uncoded error is internal",
			err:    errors.New("redis: nil"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			body := decodeEnvelope(t, w)
			assert.Equal(t, tt.code, body["error"])
			desc, ok := body["error_description"]
			if tt.description == "" {
				assert.False(t, ok, "internal errors must not describe themselves")
				return
			}
			assert.Equal(t, tt.description, desc)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"lot_id": "12"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"lot_id":"12"}`, w.Body.String())
}
