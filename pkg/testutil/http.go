// Package testutil holds request builders and assertions shared by the
// resident and history handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Routes is implemented by the resident and history handlers.
type Routes interface {
	Register(r chi.Router)
}

// Router mounts routes on a fresh chi router, the way cmd/server does.
func Router(routes ...Routes) chi.Router {
	r := chi.NewRouter()
	for _, rt := range routes {
		rt.Register(r)
	}
	return r
}

// Serve runs req through h and returns what it wrote.
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// Get builds a bodiless request, e.g. a history or search lookup.
func Get(t *testing.T, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, path, nil)
}

// Delete builds a resident removal request.
func Delete(t *testing.T, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodDelete, path, nil)
}

// SendJSON marshals a resident payload into a POST or PUT request.
func SendJSON(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err, "marshal %s %s payload", method, path)
	return SendRaw(t, method, path, string(raw))
}

// SendRaw sends body verbatim so tests can submit malformed JSON.
func SendRaw(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON decodes a successful response body.
func DecodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out), "decode response: %s", rr.Body.String())
	return out
}

// ErrorEnvelope is the body httputil.WriteError produces.
type ErrorEnvelope struct {
	Error       string  `json:"error"`
	Description *string `json:"error_description"`
}

func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status, body: %s", rr.Body.String())
}

func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertError checks the status and the error code of an envelope and
// returns it for further checks.
func AssertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) ErrorEnvelope {
	t.Helper()
	AssertStatus(t, rr, status)
	env := DecodeJSON[ErrorEnvelope](t, rr)
	assert.Equal(t, code, env.Error, "unexpected error code")
	return env
}

// AssertInternalErrorHidden checks a 500 whose cause (SQL, Redis or broker
// text) was not leaked to the client.
func AssertInternalErrorHidden(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	env := AssertError(t, rr, http.StatusInternalServerError, "internal_error")
	assert.Nil(t, env.Description, "internal errors must not carry a description")
}
