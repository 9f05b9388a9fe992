// Package actor propagates the case-worker identity set by the upstream
// gateway. Requests without the header are treated as system-initiated;
// authentication itself happens upstream.
package actor

import (
	"net/http"

	"bidrag/pkg/requestcontext"
)

const header = "X-Saksbehandler-Ident"

// Middleware stores the case-worker ident from the request header in the
// context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(header); actor != "" {
			r = r.WithContext(requestcontext.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
