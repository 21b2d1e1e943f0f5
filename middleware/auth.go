package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/competition-system/models"
)

// Authenticator verifies HS256 bearer tokens and stores the caller as a models.Submitter.
type Authenticator struct {
	secret []byte
	logger *slog.Logger
}

func NewAuthenticator(secret string, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{secret: []byte(secret), logger: logger}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := a.parse(tokenString)
		if err != nil {
			a.logger.DebugContext(r.Context(), "token rejected", slog.Any("error", err))
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		submitter, err := submitterFromClaims(claims)
		if err != nil {
			a.logger.DebugContext(r.Context(), "token claims rejected", slog.Any("error", err))
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSubmitter(r.Context(), submitter)))
	})
}

func (a *Authenticator) parse(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IssueToken signs a token carrying the submitter claims.
func (a *Authenticator) IssueToken(s models.Submitter, ttl time.Duration) (string, error) {
	if !s.Role.Valid() {
		return "", errors.New("cannot issue a token for an unknown role")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		jwtClaimUserID: s.UserID,
		jwtClaimRole:   s.Role,
		"exp":          now.Add(ttl).Unix(),
		"iat":          now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// RequireRoles must run after Authenticate.
func RequireRoles(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			submitter, err := SubmitterFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(roles, submitter.Role) {
				writeError(w, http.StatusForbidden, "role is not allowed to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
