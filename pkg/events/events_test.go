package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name: "valid config",
			config: &Config{
				BrokerURL:            "tcp://localhost:1883",
				ClientID:             "materials-service",
				KeepAlive:            30 * time.Second,
				ConnectTimeout:       5 * time.Second,
				AutoReconnect:        true,
				MaxReconnectInterval: 1 * time.Minute,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config, logger)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, client)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, client)
				assert.NotNil(t, client.client)
				assert.False(t, client.IsConnected())
			}
		})
	}
}

func TestPublishNotConnected(t *testing.T) {
	client, err := NewClient(&Config{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       "materials-service",
		ConnectTimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	err = client.Publish(MaterialTopic(ActionCreated), []byte("{}"))
	assert.ErrorContains(t, err, "not connected")
}

func TestSubscribeNotConnected(t *testing.T) {
	client, err := NewClient(&Config{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       "materials-service",
		ConnectTimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	err = client.Subscribe(SaleCompletedTopic(), func(topic string, payload []byte) error {
		return nil
	})
	assert.ErrorContains(t, err, "not connected")

	err = client.Unsubscribe(SaleCompletedTopic())
	assert.ErrorContains(t, err, "not connected")
}

func TestNewMessage(t *testing.T) {
	payload := MaterialEvent{
		MaterialID:  7,
		Name:        "Espresso Beans",
		Quantity:    12,
		Measurement: "pcs",
		Status:      "Available",
	}

	msg, err := NewMessage(MessageTypeEvent, "service:materials", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, MessageTypeEvent, msg.Type)
	assert.Equal(t, "service:materials", msg.Source)
	assert.WithinDuration(t, time.Now().UTC(), msg.Timestamp, time.Second)

	var decoded MaterialEvent
	require.NoError(t, msg.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewMessageUniqueIDs(t *testing.T) {
	a, err := NewMessage(MessageTypeStatus, "service:materials", nil)
	require.NoError(t, err)
	b, err := NewMessage(MessageTypeStatus, "service:materials", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "bleuims/inventory/material/created", MaterialTopic(ActionCreated))
	assert.Equal(t, "bleuims/inventory/material/updated", MaterialTopic(ActionUpdated))
	assert.Equal(t, "bleuims/inventory/material/deleted", MaterialTopic(ActionDeleted))
	assert.Equal(t, "bleuims/inventory/batch/logged", BatchTopic(ActionLogged))
	assert.Equal(t, "bleuims/inventory/sale/deducted", SaleDeductedTopic())
	assert.Equal(t, "bleuims/pos/sale/completed", SaleCompletedTopic())
	assert.Equal(t, "bleuims/inventory/material/low_stock", LowStockTopic())
	assert.Equal(t, "bleuims/inventory/service/health", HealthTopic())
}

func TestParseTopic(t *testing.T) {
	parts, err := ParseTopic("bleuims/inventory/material/created")
	require.NoError(t, err)
	assert.Equal(t, []string{"inventory", "material", "created"}, parts)

	_, err = ParseTopic("other/inventory/material")
	assert.Error(t, err)
}

func TestValidateTopic(t *testing.T) {
	assert.True(t, ValidateTopic("bleuims/inventory/material/created"))
	assert.False(t, ValidateTopic("bleuims/inventory"))
	assert.False(t, ValidateTopic("other/inventory/material"))
}
