package security

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bleu-ims/materials-service/internal/models"
)

// RemoteValidator validates bearer tokens against the platform user service
// by calling its /auth/users/me endpoint with the caller's token.
type RemoteValidator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRemoteValidator creates a validator backed by the user service at
// baseURL. A zero timeout defaults to 10s.
func NewRemoteValidator(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &RemoteValidator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "remote-validator")),
	}
}

// ValidateToken asks the user service who the token belongs to. Auth service
// errors keep their original status code; network failures surface as 503.
func (v *RemoteValidator) ValidateToken(ctx context.Context, token string) (*models.UserContext, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user service request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("User service unavailable", zap.Error(err))
		return nil, NewAuthError(http.StatusServiceUnavailable,
			"auth service unavailable: "+err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Detail string `json:"detail"`
		}
		detail := fmt.Sprintf("auth service error: %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
			detail += " - " + body.Detail
		}
		v.logger.Warn("Token rejected by user service",
			zap.Int("status", resp.StatusCode))
		return nil, NewAuthError(resp.StatusCode, detail)
	}

	var user models.UserContext
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user service response: %w", err)
	}
	return &user, nil
}
