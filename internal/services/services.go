package services

// Upload is a file received from a client: its original name and raw bytes.
type Upload struct {
	Name string
	Data []byte
}

// EventPublisher pushes domain events to the message broker. Publishing is
// synchronous and best-effort: a failed publish is logged, never fatal to the
// request that triggered it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}
