package queue

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"gopkg.in/yaml.v2"
)

type rabbitmq struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitMQ(url string) (Channel, error) {
	conn, err := amqp.Dial(url)

	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()

	if err != nil {
		return nil, err
	}

	return &rabbitmq{conn: conn, ch: ch}, nil
}

func (r *rabbitmq) CreateQueue(queue string) error {
	_, err := r.ch.QueueDeclare(queue, false, false, false, false, nil)
	return err
}

func (r *rabbitmq) Publish(queue string, data interface{}) error {
	body, err := yaml.Marshal(data)

	if err != nil {
		return errors.Wrap(err, "rabbitmq message marshal")
	}

	return r.ch.Publish("", queue, false, false, amqp.Publishing{
		ContentType: "text/yaml",
		Body:        body,
	})
}
