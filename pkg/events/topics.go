package events

import (
	"fmt"
	"strings"
)

// Topic naming conventions for the inventory platform.
// Format: bleuims/{service}/{resource}/{action}
const (
	// TopicPrefix is the root prefix for all platform topics
	TopicPrefix = "bleuims"

	// ServiceInventory identifies the materials inventory service
	ServiceInventory = "inventory"
	// ServicePOS identifies the point-of-sale service
	ServicePOS = "pos"

	// Resources
	ResourceMaterial = "material"
	ResourceBatch    = "batch"
	ResourceSale     = "sale"
	ResourceService  = "service"

	// Actions
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionLogged    = "logged"
	ActionDeducted  = "deducted"
	ActionCompleted = "completed"
	ActionLowStock  = "low_stock"
	ActionHealth    = "health"
)

// TopicBuilder constructs topic strings following platform conventions.
type TopicBuilder struct {
	parts []string
}

// NewTopicBuilder starts a topic with the platform prefix.
func NewTopicBuilder() *TopicBuilder {
	return &TopicBuilder{
		parts: []string{TopicPrefix},
	}
}

// Service adds a service segment.
func (tb *TopicBuilder) Service(service string) *TopicBuilder {
	tb.parts = append(tb.parts, service)
	return tb
}

// Resource adds a resource segment.
func (tb *TopicBuilder) Resource(resource string) *TopicBuilder {
	tb.parts = append(tb.parts, resource)
	return tb
}

// Action adds an action segment.
func (tb *TopicBuilder) Action(action string) *TopicBuilder {
	tb.parts = append(tb.parts, action)
	return tb
}

// Build constructs the final topic string.
func (tb *TopicBuilder) Build() string {
	return strings.Join(tb.parts, "/")
}

// Common topic patterns

// MaterialTopic returns the topic for a material lifecycle action.
func MaterialTopic(action string) string {
	return NewTopicBuilder().
		Service(ServiceInventory).
		Resource(ResourceMaterial).
		Action(action).
		Build()
}

// BatchTopic returns the topic for a batch lifecycle action.
func BatchTopic(action string) string {
	return NewTopicBuilder().
		Service(ServiceInventory).
		Resource(ResourceBatch).
		Action(action).
		Build()
}

// SaleCompletedTopic returns the topic POS terminals publish completed sales
// on. The inventory service consumes it to deduct recipe materials.
func SaleCompletedTopic() string {
	return NewTopicBuilder().
		Service(ServicePOS).
		Resource(ResourceSale).
		Action(ActionCompleted).
		Build()
}

// SaleDeductedTopic returns the topic announcing a completed sale deduction.
func SaleDeductedTopic() string {
	return NewTopicBuilder().
		Service(ServiceInventory).
		Resource(ResourceSale).
		Action(ActionDeducted).
		Build()
}

// LowStockTopic returns the topic for low stock alerts.
func LowStockTopic() string {
	return NewTopicBuilder().
		Service(ServiceInventory).
		Resource(ResourceMaterial).
		Action(ActionLowStock).
		Build()
}

// HealthTopic returns the periodic service health topic.
func HealthTopic() string {
	return NewTopicBuilder().
		Service(ServiceInventory).
		Resource(ResourceService).
		Action(ActionHealth).
		Build()
}

// ParseTopic extracts segments from a topic string, validating the prefix.
func ParseTopic(topic string) ([]string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[0] != TopicPrefix {
		return nil, fmt.Errorf("invalid topic format: must start with %s", TopicPrefix)
	}
	return parts[1:], nil
}

// ValidateTopic checks if a topic follows platform conventions.
func ValidateTopic(topic string) bool {
	parts := strings.Split(topic, "/")
	return len(parts) >= 3 && parts[0] == TopicPrefix
}
