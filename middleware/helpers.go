package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/competition-system/models"
)

type contextKey string

const submitterContextKey contextKey = "submitter"

const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

var ErrNoSubmitter = errors.New("submitter not found in context")

func WithSubmitter(ctx context.Context, s models.Submitter) context.Context {
	return context.WithValue(ctx, submitterContextKey, s)
}

// SubmitterFromContext returns the identity stored by Authenticate.
func SubmitterFromContext(ctx context.Context) (models.Submitter, error) {
	s, ok := ctx.Value(submitterContextKey).(models.Submitter)
	if !ok {
		return models.Submitter{}, ErrNoSubmitter
	}
	return s, nil
}

func submitterFromClaims(claims jwt.MapClaims) (models.Submitter, error) {
	userID, err := userIDFromClaims(claims)
	if err != nil {
		return models.Submitter{}, err
	}

	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return models.Submitter{}, fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	roleStr, ok := roleClaim.(string)
	if !ok {
		return models.Submitter{}, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}
	role := models.UserRole(roleStr)
	if !role.Valid() {
		return models.Submitter{}, fmt.Errorf("invalid role value in claim: %q", roleStr)
	}

	return models.Submitter{UserID: userID, Role: role}, nil
}

// userIDFromClaims accepts the numeric form encoding/json produces and a decimal string.
func userIDFromClaims(claims jwt.MapClaims) (int, error) {
	raw, ok := claims[jwtClaimUserID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}

	var userID int
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimUserID, v)
		}
		userID = int(v)
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid '%s' claim: %q", jwtClaimUserID, v)
		}
		userID = id
	default:
		return 0, fmt.Errorf("invalid type for '%s' claim: expected number or string, got %T", jwtClaimUserID, raw)
	}

	if userID <= 0 {
		return 0, fmt.Errorf("invalid user ID value in '%s' claim: %d", jwtClaimUserID, userID)
	}
	return userID, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
