package security

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/models"
)

// Claims are the JWT claims issued by the platform user service.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"userRole"`
	jwt.RegisteredClaims
}

// LocalValidator validates HS256 tokens with a shared secret, without a
// round trip to the user service.
type LocalValidator struct {
	secret []byte
	logger *zap.Logger
}

// NewLocalValidator creates a validator using the shared signing secret.
func NewLocalValidator(secret string, logger *zap.Logger) *LocalValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalValidator{
		secret: []byte(secret),
		logger: logger.With(zap.String("component", "local-validator")),
	}
}

// ValidateToken parses and verifies the token signature and expiry.
func (v *LocalValidator) ValidateToken(ctx context.Context, tokenString string) (*models.UserContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		v.logger.Warn("Token validation failed", zap.Error(err))
		return nil, Unauthorized("invalid token: " + err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, Unauthorized("invalid token claims")
	}

	return &models.UserContext{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// SignToken issues an HS256 token for the given user. Used by tests and
// local development tooling.
func (v *LocalValidator) SignToken(user *models.UserContext, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "bleu-ims",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
