package events

import (
	"context"
	"time"

	"github.com/bleu-ims/materials-service/pkg/healthcheck"
)

// Checker reports broker connectivity. A disconnected broker degrades the
// service rather than failing it, since events are best effort.
type Checker struct {
	client *Client
}

// NewChecker creates a health checker for the broker connection.
func NewChecker(client *Client) *Checker {
	return &Checker{client: client}
}

// Name implements healthcheck.Checker.
func (c *Checker) Name() string {
	return "broker"
}

// Check implements healthcheck.Checker.
func (c *Checker) Check(ctx context.Context) *healthcheck.Result {
	status := healthcheck.StatusHealthy
	message := "Broker connected"
	if c.client == nil || !c.client.IsConnected() {
		status = healthcheck.StatusDegraded
		message = "Broker not connected"
	}

	return &healthcheck.Result{
		ComponentName: c.Name(),
		Status:        status,
		Message:       message,
		Timestamp:     time.Now(),
	}
}
