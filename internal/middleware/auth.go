package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/models"
)

type contextKey string

const userEmailKey contextKey = "user_email"

// SessionValidator resolves a bearer token to the owner's email.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireSession rejects requests without a valid session and stores the user's
// email in the request context.
func RequireSession(sessions SessionValidator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := sessions.Validate(r.Context(), BearerToken(r))
			if err != nil {
				if !errors.Is(err, models.ErrUnauthorized) {
					log.Sugar().Errorw("session lookup failed", "err", err)
				}
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserEmail(r.Context(), email)))
		})
	}
}

// WithUserEmail returns a copy of ctx carrying the authenticated email.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey, email)
}

// UserEmail returns the authenticated email, or "" outside RequireSession.
func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}
