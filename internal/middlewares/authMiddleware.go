package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"aarambh/internal/services"
	"aarambh/internal/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// Authenticator admits requests that carry a valid bearer session token.
type Authenticator struct {
	tokens services.TokenService
}

func NewAuthenticator(tokens services.TokenService) *Authenticator {
	return &Authenticator{tokens: tokens}
}

func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token format")
			return
		}

		claims, err := a.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			log.Debug().Err(err).Msg("Rejected session token")
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := WithUserID(r.Context(), claims.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the account id stored by Require.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
