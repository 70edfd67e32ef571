package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
)

// QueueSink publishes rendered messages on an rmq queue for a mail worker
// to pick up.
type QueueSink struct {
	conn  rmq.Connection
	queue rmq.Queue
}

// NewQueueSink opens queueName on the given redis client.
func NewQueueSink(client *redis.Client, queueName string) (*QueueSink, error) {
	conn, err := rmq.OpenConnectionWithRedisClient("bus_backoffice", client, nil)
	if err != nil {
		return nil, fmt.Errorf("open queue connection: %w", err)
	}
	queue, err := conn.OpenQueue(queueName)
	if err != nil {
		return nil, fmt.Errorf("open queue %s: %w", queueName, err)
	}
	return &QueueSink{conn: conn, queue: queue}, nil
}

func (s *QueueSink) Name() string { return "queue" }

func (s *QueueSink) Deliver(_ context.Context, msg Rendered) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.queue.PublishBytes(payload)
}

// Close stops any consumers started on the connection.
func (s *QueueSink) Close() {
	<-s.conn.StopAllConsuming()
}
