// Package broker implements the RPC-over-RabbitMQ client used to dispatch
// named tasks to the remote worker and wait for correlated replies.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hromada-tools/backoffice/internal/application"
	"github.com/hromada-tools/backoffice/internal/config"
)

// replyToQueue is RabbitMQ's direct reply-to pseudo queue. Consuming from it
// before publishing gives us a private reply channel without declaring a
// queue per call.
const replyToQueue = "amq.rabbitmq.reply-to"

type taskEnvelope struct {
	TaskName string `json:"task_name"`
	Payload  any    `json:"payload"`
}

type Client struct {
	url       string
	taskQueue string
	logger    *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewClient(cfg config.BrokerConfig, logger *slog.Logger) *Client {
	return &Client{
		url:       cfg.URL,
		taskQueue: cfg.TaskQueue,
		logger:    logger,
	}
}

// SendTaskWithReply publishes a task and blocks until the correlated reply
// arrives or the timeout elapses. A timeout does not cancel the remote task.
func (c *Client) SendTaskWithReply(ctx context.Context, task string, payload any, timeout time.Duration) (*application.TaskResult, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, application.NewTaskTransportError(task, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		c.dropConnection()
		return nil, application.NewTaskTransportError(task, fmt.Errorf("open channel: %w", err))
	}
	defer ch.Close()

	replies, err := ch.Consume(replyToQueue, "", true, true, false, false, nil)
	if err != nil {
		return nil, application.NewTaskTransportError(task, fmt.Errorf("consume reply queue: %w", err))
	}

	body, err := json.Marshal(taskEnvelope{TaskName: task, Payload: payload})
	if err != nil {
		return nil, application.NewTaskTransportError(task, fmt.Errorf("marshal payload: %w", err))
	}

	correlationID := uuid.NewString()

	c.logger.Info("sending task",
		"task", task,
		"correlation_id", correlationID,
		"timeout", timeout,
	)

	err = ch.PublishWithContext(ctx, "", c.taskQueue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		ReplyTo:       replyToQueue,
		Expiration:    strconv.FormatInt(timeout.Milliseconds(), 10),
		Body:          body,
	})
	if err != nil {
		c.dropConnection()
		return nil, application.NewTaskTransportError(task, fmt.Errorf("publish: %w", err))
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, application.NewTaskTransportError(task, ctx.Err())

		case <-timer.C:
			c.logger.Warn("task reply timed out",
				"task", task,
				"correlation_id", correlationID,
				"timeout", timeout,
			)
			return nil, application.NewTaskTimeoutError(task)

		case delivery, ok := <-replies:
			if !ok {
				c.dropConnection()
				return nil, application.NewTaskTransportError(task, fmt.Errorf("reply channel closed"))
			}
			if delivery.CorrelationId != correlationID {
				continue
			}

			result, err := application.ParseTaskResult(delivery.Body)
			if err != nil {
				return nil, application.NewTaskTransportError(task, err)
			}

			c.logger.Info("task reply received",
				"task", task,
				"correlation_id", correlationID,
				"success", result.Success,
			)
			return result, nil
		}
	}
}

func (c *Client) connection() (*amqp.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn, nil
	}

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	c.logger.Info("connected to broker", "task_queue", c.taskQueue)
	c.conn = conn
	return conn, nil
}

func (c *Client) dropConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		_ = c.conn.Close()
	}
	c.conn = nil
}

func (c *Client) Close() {
	c.dropConnection()
	c.logger.Info("broker connection closed")
}
