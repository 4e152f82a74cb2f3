package middleware

import (
	"context"
	"docauth/internal/models"
	errutils "docauth/internal/utils/http_errors"
	"log/slog"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

func Auth(log *slog.Logger, storer SessionStorer) func(http.Handler) http.Handler {
	log = log.With(slog.String("op", pkg+"Auth"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := Token(r)
			if token == "" {
				log.Warn("request without token", slog.String("path", r.URL.Path))
				errutils.WriteJSONError(w, http.StatusUnauthorized, "token is required")
				return
			}

			requester, err := storer.UserByToken(r.Context(), token)
			if err != nil {
				log.Warn("failed get user by token", slog.String("error", err.Error()))
				errutils.WriteJSONError(w, http.StatusForbidden, "token is invalid")
				return
			}

			ctx := context.WithValue(r.Context(), models.UserContextKey, requester)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Token reads the session token from the Authorization header and falls
// back to the token query parameter.
func Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	return r.URL.Query().Get("token")
}

// Requester returns the user stored by Auth.
func Requester(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(models.UserContextKey).(*models.User)
	return user, ok && user != nil
}
