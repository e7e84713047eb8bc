package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"canvass/internal/voter/models"
)

// ViewerValidator defines the interface for validating bearer tokens.
type ViewerValidator interface {
	ValidateToken(tokenString string) (*models.Viewer, error)
}

type contextKeyViewer struct{}

// ContextKeyViewer is exported for use in handlers
var ContextKeyViewer = contextKeyViewer{}

// GetViewer retrieves the authenticated viewer from the context.
func GetViewer(ctx context.Context) (models.Viewer, bool) {
	viewer, ok := ctx.Value(ContextKeyViewer).(models.Viewer)
	return viewer, ok
}

func RequireViewer(validator ViewerValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if after, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				viewer, err := validator.ValidateToken(after)
				if err != nil {
					ctx := r.Context()
					requestID := GetRequestID(ctx)
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", requestID,
					)
					writeUnauthorized(ctx, w, logger, "Invalid or expired token")
					return
				}

				ctx := context.WithValue(r.Context(), ContextKeyViewer, *viewer)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// No Authorization header or invalid format
			ctx := r.Context()
			logger.WarnContext(ctx, "unauthorized access - missing token",
				"request_id", GetRequestID(ctx),
			)
			writeUnauthorized(ctx, w, logger, "Missing or invalid Authorization header")
		})
	}
}

func writeUnauthorized(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, err := w.Write([]byte(`{"success":false,"error":"` + description + `","code":"UNAUTHORIZED"}`))
	if err != nil {
		logger.ErrorContext(ctx, "failed to write unauthorized response",
			"error", err,
			"request_id", GetRequestID(ctx),
		)
	}
}
