package testutil

import (
	"net/http"

	"copro/pkg/requestcontext"
)

// WithActor adds the authenticated actor to the request context, as the
// bearer-token middleware does.
func WithActor(req *http.Request, actor string) *http.Request {
	if actor == "" {
		return req
	}
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}
