// This file provides the durable mirror for order_created events.
// Every event fanned out to live connections is also published
// persistently to RabbitMQ so restarts do not lose the audit trail and
// additional instances can consume the same stream.  Errors are logged
// and returned to let callers ignore failures without interrupting the
// request flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tranqv/restaurant-pos/internal/queue"
)

// PublishOrderCreated publishes an OrderCreatedEvent to the
// orders.created queue.  It dials per publish, declares the durable
// queue idempotently and marks the message persistent.  It never
// panics; any error is logged and returned.
func PublishOrderCreated(ctx context.Context, ev queue.OrderCreatedEvent) error {
	conn, err := amqp.Dial(queue.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.OrderQueueName, // name
		true,                 // durable
		false,                // autoDelete
		false,                // exclusive
		false,                // noWait
		nil,                  // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                   // default exchange
		queue.OrderQueueName, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
