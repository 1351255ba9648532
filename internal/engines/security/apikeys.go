package security

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bleu-ims/materials-service/internal/models"
	"github.com/bleu-ims/materials-service/internal/storage"
)

// APIKeyEngine manages service-to-service credentials. Keys are presented as
// "<key-id>.<secret>"; only a bcrypt hash of the secret is stored.
type APIKeyEngine struct {
	db     storage.DB
	logger *zap.Logger
}

// NewAPIKeyEngine creates an API key engine.
func NewAPIKeyEngine(db storage.DB, logger *zap.Logger) *APIKeyEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIKeyEngine{
		db:     db,
		logger: logger.With(zap.String("component", "apikey-engine")),
	}
}

// Generate creates a new API key with the given role and returns the
// plaintext key once. expiresAt may be nil for non-expiring keys.
func (e *APIKeyEngine) Generate(ctx context.Context, name, role string, expiresAt *time.Time) (string, *models.ServiceAPIKey, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	secret := hex.EncodeToString(secretBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	key := &models.ServiceAPIKey{
		ID:         uuid.NewString(),
		Name:       name,
		SecretHash: string(hash),
		Role:       role,
		Enabled:    true,
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}

	_, err = e.db.Exec(ctx, `
		INSERT INTO service_api_keys (key_id, key_name, secret_hash, role, enabled, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.SecretHash, key.Role, key.Enabled, key.CreatedAt, key.ExpiresAt)
	if err != nil {
		return "", nil, fmt.Errorf("failed to store API key: %w", err)
	}

	e.logger.Info("API key generated",
		zap.String("key_id", key.ID),
		zap.String("name", key.Name),
		zap.String("role", key.Role))

	return key.ID + "." + secret, key, nil
}

// Validate checks a presented key and returns the service identity it maps
// to. Disabled and expired keys are rejected.
func (e *APIKeyEngine) Validate(ctx context.Context, presented string) (*models.UserContext, error) {
	keyID, secret, ok := strings.Cut(presented, ".")
	if !ok || keyID == "" || secret == "" {
		return nil, Unauthorized("malformed API key")
	}

	var key models.ServiceAPIKey
	err := e.db.QueryRow(ctx, `
		SELECT key_id, key_name, secret_hash, role, enabled, created_at, expires_at
		FROM service_api_keys WHERE key_id = $1`, keyID).
		Scan(&key.ID, &key.Name, &key.SecretHash, &key.Role, &key.Enabled,
			&key.CreatedAt, &key.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			e.logger.Warn("Unknown API key", zap.String("key_id", keyID))
			return nil, Unauthorized("invalid API key")
		}
		return nil, NewAuthError(http.StatusServiceUnavailable,
			fmt.Sprintf("API key lookup failed: %v", err))
	}

	if !key.Enabled {
		return nil, Unauthorized("API key disabled")
	}
	if key.ExpiresAt != nil && time.Now().After(*key.ExpiresAt) {
		return nil, Unauthorized("API key expired")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(secret)); err != nil {
		e.logger.Warn("API key secret mismatch", zap.String("key_id", keyID))
		return nil, Unauthorized("invalid API key")
	}

	return &models.UserContext{
		UserID:   key.ID,
		Username: key.Name,
		Role:     key.Role,
	}, nil
}

// Revoke disables an API key.
func (e *APIKeyEngine) Revoke(ctx context.Context, keyID string) error {
	tag, err := e.db.Exec(ctx,
		"UPDATE service_api_keys SET enabled = false WHERE key_id = $1", keyID)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("API key %s not found", keyID)
	}

	e.logger.Info("API key revoked", zap.String("key_id", keyID))
	return nil
}
