package events

import "slices"

// Topic constants for domain events emitted by the shop.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderUpdated       = "order.updated"
	TopicOrderStatusChanged = "order.status_changed"
)

// KnownTopic reports whether topic is one the bus accepts.
func KnownTopic(topic string) bool {
	return slices.Contains(DefaultTopics(), topic)
}

// DefaultTopics returns the topics handled by the order event worker.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderUpdated,
		TopicOrderStatusChanged,
	}
}

// OrderPayload is the body of every order.* event.
type OrderPayload struct {
	OrderID        string `json:"orderId"`
	Number         string `json:"number"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	CustomerName   string `json:"customerName"`
	CustomerEmail  string `json:"customerEmail,omitempty"`
	RevenueMinor   int64  `json:"totalRevenueMinor"`
	DroppedLines   int    `json:"droppedLines,omitempty"`
}
