package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/util"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExtractQueue = "extract_queue"
	DeleteQueue  = "delete_queue"
)

// Queues lists every job queue the worker consumes.
var Queues = []string{ExtractQueue, DeleteQueue}

// Init dials RabbitMQ with the RABBITMQ_* settings.
func Init() (*amqp091.Connection, error) {
	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnvString("RABBITMQ_HOST", "localhost"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// SetupQueues declares every queue with its _dlq and _retry companions.
// Messages in a _retry queue return to their queue after retryDelay.
func SetupQueues(ch *amqp091.Channel, queueNames []string, retryDelay time.Duration) error {
	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryDelay.Milliseconds()),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to declare %s: %w", retryName, err)
		}
	}

	return nil
}

// Publisher sends job messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, data []byte) error
}

// ChannelPublisher publishes persistent JSON messages on the default
// exchange of an AMQP channel.
type ChannelPublisher struct {
	Channel *amqp091.Channel
}

func (p ChannelPublisher) Publish(ctx context.Context, queueName string, data []byte) error {
	return p.Channel.PublishWithContext(
		ctx,
		"",
		queueName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
