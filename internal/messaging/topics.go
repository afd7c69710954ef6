package messaging

// Kafka topics for the order lifecycle.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)
