package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection держит соединение и канал; закрывать через Close
type Connection struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// NewConnection подключается к брокеру и открывает канал
func NewConnection(url string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	return &Connection{Conn: conn, Channel: ch}, nil
}

func (c *Connection) Close() error {
	if err := c.Channel.Close(); err != nil {
		_ = c.Conn.Close()
		return fmt.Errorf("failed to close RabbitMQ channel: %w", err)
	}
	return c.Conn.Close()
}
