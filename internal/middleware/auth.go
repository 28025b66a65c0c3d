package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/quietblocks/quietblocks-api/internal/pkg/jwt"
	"github.com/quietblocks/quietblocks-api/internal/pkg/logger"
	"github.com/quietblocks/quietblocks-api/internal/pkg/response"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
)

// Auth returns middleware that validates JWT
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return authenticate(jwtService, false)
}

// AuthWithQueryToken is Auth that also accepts ?token=, for websocket clients
// that cannot set headers
func AuthWithQueryToken(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return authenticate(jwtService, true)
}

func authenticate(jwtService *jwt.Service, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil && allowQuery {
				if q := r.URL.Query().Get("token"); q != "" {
					token, err = q, nil
				}
			}
			if err != nil {
				if errors.Is(err, errMissingAuthHeader) {
					response.Unauthorized(w, "Missing authorization header")
				} else {
					response.Unauthorized(w, "Invalid authorization header format")
				}
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			l := logger.FromContext(ctx).With().Str("user_id", claims.UserID.String()).Logger()
			ctx = logger.WithContext(ctx, &l)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var (
	errMissingAuthHeader = errors.New("missing authorization header")
	errInvalidAuthHeader = errors.New("invalid authorization header format")
)

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingAuthHeader
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errInvalidAuthHeader
	}
	return parts[1], nil
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// WithUserID returns ctx carrying userID, as Auth would set it
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// CronAuth guards the reminder trigger with a shared bearer secret. An empty
// secret lets every request through.
func CronAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(r)
			if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				response.Unauthorized(w, "Invalid cron secret")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
