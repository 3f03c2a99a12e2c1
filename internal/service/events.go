package service

import (
	"encoding/json"

	"github.com/IBM/sarama"

	"github.com/libtrack/book-reserve/pkg/kafka"
)

type EventPublisher interface {
	Publish(event kafka.EventReservation) error
}

type eventPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewEventPublisher(producer sarama.SyncProducer, topic string) *eventPublisher {
	return &eventPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *eventPublisher) Publish(event kafka.EventReservation) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: p.topic, Value: sarama.StringEncoder(data)}
	if _, _, err = p.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}
