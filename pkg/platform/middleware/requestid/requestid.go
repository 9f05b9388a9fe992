// Package requestid assigns every request a correlation id. Incoming
// X-Request-ID headers are honored so ids survive hops through the gateway.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"bidrag/pkg/requestcontext"
)

const header = "X-Request-ID"

// Middleware stores the request id in the context and echoes it on the
// response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
