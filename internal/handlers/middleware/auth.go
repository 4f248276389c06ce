package middleware

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nvoronin/taskdeck/internal/apperrors"
	"github.com/nvoronin/taskdeck/internal/handlers/render"
	"github.com/nvoronin/taskdeck/internal/handlers/userctx"
)

type sessionVerifier interface {
	// Verify the access token cookie and resolve the user identity
	// Has to return apperrors.ErrNoSession if the cookie is absent
	Authenticate(r *http.Request) (uuid.UUID, error)
}

type logger interface {
	Info(msg string, args ...any)
}

// AuthMiddleware verifies the session on every request and attaches the user
// id to the request context. Stateless: signature and expiry only
func AuthMiddleware(verifier sessionVerifier, l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := verifier.Authenticate(r)
			if err != nil {
				// Distinguish a missing cookie from a bad one, but never leak
				// why verification failed beyond that
				l.Info("session verification failed", "error", err.Error())

				switch {
				case errors.Is(err, apperrors.ErrNoSession):
					render.ServiceError(w, "Unauthorized - no session", http.StatusUnauthorized)
				default:
					render.ServiceError(w, "Unauthorized - invalid session", http.StatusUnauthorized)
				}
				return
			}

			ctx := userctx.New(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
