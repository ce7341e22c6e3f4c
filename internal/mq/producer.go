package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/workbridge/backend/internal/model"
)

const (
	ExchangeName = "events"
)

// RoutingKey はワークスペースイベントのルーティングキー (例: "workspace.delivery.reviewed")
func RoutingKey(eventType string) string {
	return "workspace." + eventType
}

// Producer は topic exchange にイベントを発行する
type Producer struct {
	conn    *amqp091.Connection
	mu      sync.Mutex
	channel *amqp091.Channel
}

// NewProducer は RabbitMQ に接続し exchange を宣言する
func NewProducer(url string) (*Producer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName,
		"topic", // routing key のパターンで購読できる
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Producer{
		conn:    conn,
		channel: ch,
	}, nil
}

// closable は amqp091.Connection と amqp091.Channel の共通部分
type closable interface {
	IsClosed() bool
}

// Ping は接続またはチャネルが閉じていればエラーを返す
func (p *Producer) Ping(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.channel == nil {
		return amqp091.ErrClosed
	}
	return checkOpen(p.conn, p.channel)
}

func checkOpen(conn, ch closable) error {
	if conn == nil || conn.IsClosed() {
		return amqp091.ErrClosed
	}
	if ch == nil || ch.IsClosed() {
		return amqp091.ErrClosed
	}
	return nil
}

// reopenChannel はチャネルレベルのエラーで閉じたチャネルを開き直す。p.mu を保持して呼ぶ
func (p *Producer) reopenChannel() error {
	if p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		return amqp091.ErrClosed
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to reopen channel: %w", err)
	}
	p.channel = ch
	return nil
}

func (p *Producer) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Publish publishes a JSON payload to the exchange with the given routing key.
func (p *Producer) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.reopenChannel(); err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx,
		ExchangeName, // exchange
		routingKey,   // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
		},
	)
}

// WorkspaceChanged は service.WorkspaceNotifier を満たす
func (p *Producer) WorkspaceChanged(ctx context.Context, ev model.WorkspaceEvent) error {
	return p.Publish(ctx, RoutingKey(ev.Type), ev)
}
