// Package events публикует события календаря наружу после коммита.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/model"
)

// Message — то, что уходит в очередь. Повторяет строку аудита.
type Message struct {
	ID         string          `json:"id"`
	Type       model.EventType `json:"type"`
	EntityID   string          `json:"entityId,omitempty"`
	StaffID    string          `json:"staffId,omitempty"`
	ActorID    string          `json:"actorId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Details    json.RawMessage `json:"details,omitempty"`
}

func FromModel(e *model.Event) Message {
	m := Message{
		ID:         e.ID.String(),
		Type:       e.EventType,
		OccurredAt: e.CreatedAt.UTC(),
	}
	if e.EntityID != nil {
		m.EntityID = e.EntityID.String()
	}
	if e.StaffID != nil {
		m.StaffID = e.StaffID.String()
	}
	if e.ActorID != nil {
		m.ActorID = e.ActorID.String()
	}
	if len(e.Details) > 0 {
		m.Details = json.RawMessage(e.Details)
	}
	return m
}

// Publisher — ошибка публикации не должна откатывать уже закоммиченное изменение.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// ===== RabbitMQ =====

type AMQPPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

// NewAMQPPublisher подключается и объявляет durable-очередь queue.
func NewAMQPPublisher(url, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, queue: queue, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         string(msg.Type),
		Timestamp:    msg.OccurredAt,
		Body:         body,
	}

	// канал amqp не потокобезопасен
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.logger.Warn("rabbitmq publish failed",
			zap.String("event_type", string(msg.Type)),
			zap.String("event_id", msg.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// ===== без брокера =====

// Nop — AMQP_URL не задан.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
func (Nop) Close() error                           { return nil }

// Recorder копит сообщения в памяти.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
