package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// defaultDialTimeout bounds the dial and handshake when ctx has no deadline.
const defaultDialTimeout = 5 * time.Second

// AMQPPublisher publishes reservation events to RabbitMQ.  Each call dials
// the broker, declares the queue and publishes one persistent message.
// Errors are returned to the caller, which decides whether to log them.
type AMQPPublisher struct {
    URL   string
    Queue string
    Log   zerolog.Logger
}

// NewAMQPPublisher returns a publisher for ReservationQueueName.
func NewAMQPPublisher(url string, log zerolog.Logger) *AMQPPublisher {
    return &AMQPPublisher{URL: url, Queue: ReservationQueueName, Log: log}
}

// Publish sends ev to the configured queue.  Dialing, the AMQP handshake
// and the publish itself all stop at ctx's deadline.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ReservationEvent) error {
    timeout, err := dialTimeout(ctx)
    if err != nil {
        return err
    }
    conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(timeout)})
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        return fmt.Errorf("rabbitmq declare %s: %w", p.Queue, err)
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("encode event: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.EventID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    p.Log.Debug().Str("event_id", ev.EventID).Str("type", ev.Type).Msg("reservation event published")
    return nil
}

// dialTimeout returns the time left before ctx's deadline, or the default
// when ctx has none.
func dialTimeout(ctx context.Context) (time.Duration, error) {
    if err := ctx.Err(); err != nil {
        return 0, err
    }
    deadline, ok := ctx.Deadline()
    if !ok {
        return defaultDialTimeout, nil
    }
    left := time.Until(deadline)
    if left <= 0 {
        return 0, context.DeadlineExceeded
    }
    return left, nil
}

// NopPublisher discards events.  It is used when RabbitMQ is disabled.
type NopPublisher struct{}

// Publish implements the publisher contract and always succeeds.
func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
