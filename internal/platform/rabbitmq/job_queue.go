package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	ingestion "github.com/markdave123-py/legalmind/internal/core/ingestion_engine"
)

var _ ingestion.Queue = (*JobQueue)(nil)

// JobQueue publishes ingestion jobs as persistent JSON messages and consumes
// them with manual acknowledgement. Failed jobs are dropped, not requeued;
// the corpus records the failure.
type JobQueue struct {
	conn      *amqp.Connection
	queueName string
}

func NewJobQueue(conn *amqp.Connection, queueName string) *JobQueue {
	return &JobQueue{conn: conn, queueName: queueName}
}

func (q *JobQueue) declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(q.queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}
	return nil
}

func (q *JobQueue) Publish(ctx context.Context, job ingestion.Job) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := q.declare(ch); err != nil {
		return err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job payload failed: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", q.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}); err != nil {
		return fmt.Errorf("publish job failed: %w", err)
	}
	return nil
}

// Consume blocks until ctx is done or the delivery channel closes.
func (q *JobQueue) Consume(ctx context.Context, handler func(context.Context, ingestion.Job) error) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	defer ch.Close()

	if err := q.declare(ch); err != nil {
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch failed: %w", err)
	}

	deliveries, err := ch.Consume(q.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq delivery channel closed")
			}

			var job ingestion.Job
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Printf("JobQueue: decode job failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}

			if err := handler(ctx, job); err != nil {
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
