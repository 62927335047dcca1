package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

// Имена JWT claims
const (
	jwtClaimSubject = "sub"
	jwtClaimUserID  = "user_id"
)

// GetSubjectFromContext returns the caller's identity from the verified token:
// the "sub" claim, or "user_id" for tokens that only carry a numeric id.
func GetSubjectFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("user claims not found in context or invalid type")
	}

	if sub, ok := claims[jwtClaimSubject].(string); ok && sub != "" {
		return sub, nil
	}

	switch v := claims[jwtClaimUserID].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		if v != float64(int64(v)) || v <= 0 {
			return "", fmt.Errorf("invalid '%s' claim: %v", jwtClaimUserID, v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	case nil:
	default:
		return "", fmt.Errorf("invalid type for '%s' claim: %T", jwtClaimUserID, v)
	}
	return "", fmt.Errorf("missing '%s' or '%s' claim in token", jwtClaimSubject, jwtClaimUserID)
}
