// Package request assigns every request an ID for log and audit
// correlation. Incoming X-Request-ID headers are honored so gateways can
// trace a call across services.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"landregistry/pkg/requestcontext"
)

const headerName = "X-Request-ID"

// Middleware ensures a request ID exists, stores it in the context, and
// echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerName)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(headerName, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
