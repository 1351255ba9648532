// Package security implements caller authentication: remote token validation
// against the user service, local JWT validation, and service API keys.
package security

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bleu-ims/materials-service/internal/models"
)

// TokenValidator resolves a bearer token to the calling user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.UserContext, error)
}

// AuthError carries the HTTP status the API should answer with when
// authentication fails.
type AuthError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.StatusCode, e.Detail)
}

// NewAuthError creates an AuthError.
func NewAuthError(statusCode int, detail string) *AuthError {
	return &AuthError{StatusCode: statusCode, Detail: detail}
}

// Unauthorized is a convenience constructor for 401 responses.
func Unauthorized(detail string) *AuthError {
	return NewAuthError(http.StatusUnauthorized, detail)
}
