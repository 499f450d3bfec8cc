package queue

import "context"

// Queue names. Each durable work queue has a matching dead-letter queue for
// payloads that can never be processed.
const (
	IntentQueue     = "intents"
	AcceptanceQueue = "acceptances"
)

// Message is a broker payload. Implementations are plain JSON structs.
type Message interface {
	Validate() error
	MessageID() string
	Correlation() string
}

// Publisher publishes messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg Message) error
	Close() error
}

// MessageHandler handles one consumed message body. Returning ErrReject sends
// the delivery to the dead-letter queue; any other error requeues it.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer consumes messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

var workQueues = []string{IntentQueue, AcceptanceQueue}

// WorkQueueNames returns all durable work queues.
func WorkQueueNames() []string {
	names := make([]string, len(workQueues))
	copy(names, workQueues)
	return names
}

// DLQName returns the dead-letter queue name for a work queue, e.g. dlq.intents.
func DLQName(queue string) string {
	return "dlq." + queue
}

// DLQNames returns all dead-letter queues.
func DLQNames() []string {
	names := make([]string, 0, len(workQueues))
	for _, queue := range workQueues {
		names = append(names, DLQName(queue))
	}
	return names
}
