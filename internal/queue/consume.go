package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const retriesHeader = "x-retries"

// HandleFunc processes the body of a message received on queueName.
type HandleFunc func(ctx context.Context, queueName string, body []byte) error

type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Consumer reads job messages one at a time from several queues.
type Consumer struct {
	Channel    *amqp091.Channel
	Queues     []string
	MaxRetries int
	Handle     HandleFunc
	// AfterMessage runs after every processed message, e.g. to log metrics.
	AfterMessage func(queueName string, duration time.Duration)
}

type queuedMessage struct {
	msg       amqp091.Delivery
	queueName string
}

// Run consumes until ctx is canceled. The channel must be configured with
// a prefetch of one so that only one message is in flight.
func (c *Consumer) Run(ctx context.Context) error {
	messages := make(chan queuedMessage)

	for _, queueName := range c.Queues {
		deliveries, err := c.Channel.Consume(
			queueName,
			queueName+"_consumer",
			false, // autoAck
			false, // exclusive
			false, // noLocal
			false, // noWait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to consume %s: %w", queueName, err)
		}

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-deliveries:
					if !ok {
						logger.Info("[Queue] Message channel closed", "queue", queueName)
						return
					}
					select {
					case messages <- queuedMessage{msg: msg, queueName: queueName}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	logger.Info("[Queue] Listening for messages", "queues", c.Queues)
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping message processor")
			return nil
		case qm := <-messages:
			c.process(ctx, qm)
		}
	}
}

func (c *Consumer) process(ctx context.Context, qm queuedMessage) {
	start := time.Now()
	logger.Info("[Queue] Received message", "queue", qm.queueName)

	err := c.Handle(ctx, qm.queueName, qm.msg.Body)
	switch {
	case err == nil:
		if ackErr := qm.msg.Ack(false); ackErr != nil {
			logger.Error("[Queue] Failed to ack message", "err", ackErr)
		}
		logger.Info("[Queue] Message processed successfully", "queue", qm.queueName)
	case ctx.Err() != nil:
		// shutting down, leave the message to the broker
		_ = qm.msg.Nack(false, true)
	default:
		logger.Error("[Queue] Error processing message", "queue", qm.queueName, "err", err)
		HandleProcessingError(ctx, c.Channel, qm.msg, qm.queueName, c.retryLimit(err))
	}

	if c.AfterMessage != nil {
		c.AfterMessage(qm.queueName, time.Since(start))
	}
}

func (c *Consumer) retryLimit(err error) int {
	if Permanent(err) {
		return 0
	}
	return c.MaxRetries
}

// Retries returns the retry count recorded in the message headers.
func Retries(headers amqp091.Table) int {
	switch v := headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError moves a failed message to queueName_retry with an
// incremented retry count, or to queueName_dlq once maxRetries is reached.
// The original delivery is acked after the copy was published and requeued
// when publishing fails.
func HandleProcessingError(ctx context.Context, ch channelPublisher, msg amqp091.Delivery, queueName string, maxRetries int) {
	retries := Retries(msg.Headers)

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}

	target := queueName + "_retry"
	if retries >= maxRetries {
		target = queueName + "_dlq"
		logger.Warn("[Queue] Sending message to DLQ", "dlq", target, "retries", retries)
	} else {
		headers[retriesHeader] = int32(retries + 1)
	}

	err := ch.PublishWithContext(ctx, "", target, false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		logger.Error("[Queue] Failed to republish message", "queue", target, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
