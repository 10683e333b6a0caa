package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Pipeflow/internal/domain"
)

// MessageType — тип события.
type MessageType string

const (
	MessageTypePipelineAssembled MessageType = "pipeline.assembled"
	MessageTypeDeploymentCreated MessageType = "deployment.created"
)

// Message — конверт события.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// PipelineAssembledPayload — pipeline собран для dataflow.
type PipelineAssembledPayload struct {
	OrgSlug    string                  `json:"org_slug"`
	DataflowID uuid.UUID               `json:"dataflow_id"`
	Tasks      []domain.TaskDescriptor `json:"tasks"`
	Skipped    []domain.SkippedTask    `json:"skipped"`
}

// DeploymentCreatedPayload — deployment создан в движке.
type DeploymentCreatedPayload struct {
	OrgSlug        string    `json:"org_slug"`
	DataflowID     uuid.UUID `json:"dataflow_id"`
	DeploymentID   uuid.UUID `json:"deployment_id"`
	DeploymentName string    `json:"deployment_name"`
	Cron           string    `json:"cron,omitempty"`
}

// newMessage упаковывает payload в конверт с новым id.
func newMessage(msgType MessageType, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}

	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Publisher публикует события pipeline.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// PublishPipelineAssembled публикует pipeline.assembled.
func (p *Publisher) PublishPipelineAssembled(ctx context.Context, payload PipelineAssembledPayload) error {
	msg, err := newMessage(MessageTypePipelineAssembled, payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, RoutingKeyAssembled, msg)
}

// PublishDeploymentCreated публикует deployment.created.
func (p *Publisher) PublishDeploymentCreated(ctx context.Context, payload DeploymentCreatedPayload) error {
	msg, err := newMessage(MessageTypeDeploymentCreated, payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, RoutingKeyDeploymentCreated, msg)
}

func (p *Publisher) publish(ctx context.Context, key RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx,
			string(ExchangePipelines),
			string(key),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish %s: %w", msg.Type, err)
		}

		p.logger.Debug("published event",
			"routing_key", key,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}
