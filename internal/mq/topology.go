package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	ExchangePipelines Exchange = "pipeflow.pipelines"
	ExchangeDLQ       Exchange = "pipeflow.dlq"
)

const (
	QueuePipelinesAssembled Queue = "pipelines.assembled"
	QueueDeploymentsCreated Queue = "deployments.created"
	QueueDLQEvents          Queue = "dlq.events"
)

const (
	RoutingKeyAssembled         RoutingKey = "assembled"
	RoutingKeyDeploymentCreated RoutingKey = "deployment.created"
	RoutingKeyDLQ               RoutingKey = "events"
)

// Queues возвращает очереди событий, которые можно читать.
func Queues() []Queue {
	return []Queue{QueuePipelinesAssembled, QueueDeploymentsCreated, QueueDLQEvents}
}

// declareTopology объявляет обменники, очереди и их привязки. Идемпотентна.
func declareTopology(_ context.Context, ch *amqp.Channel) error {
	for _, ex := range []Exchange{ExchangePipelines, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(ex), // name
			"direct",   // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	// Сообщения, которые consumer отверг без requeue, уходят в dlq.events.
	deadLetter := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQ),
	}

	bindings := []struct {
		queue    Queue
		key      RoutingKey
		exchange Exchange
		args     amqp.Table
	}{
		{QueuePipelinesAssembled, RoutingKeyAssembled, ExchangePipelines, deadLetter},
		{QueueDeploymentsCreated, RoutingKeyDeploymentCreated, ExchangePipelines, deadLetter},
		{QueueDLQEvents, RoutingKeyDLQ, ExchangeDLQ, nil},
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, b.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
