package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"canvass/pkg/requestcontext"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an id, honoring one supplied by an
// upstream proxy, and pins the request-scoped clock so every timestamp taken
// during the request agrees.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set(requestIDHeader, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
