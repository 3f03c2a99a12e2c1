package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const (
	ReservationTopic   = "reservation.events"
	AuditConsumerGroup = "reservation-audit"
)

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

// EventReservation is the audit payload published after every successful
// reservation mutation.
type EventReservation struct {
	EventType     string    `json:"eventType"`
	ReservationID string    `json:"reservationId"`
	UserID        string    `json:"userId"`
	BookID        string    `json:"bookId"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"ts"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume runs the consumer-group session loop until the group is closed.
func Consume(cg sarama.ConsumerGroup, h sarama.ConsumerGroupHandler, log *zap.Logger, topics ...string) {
	ctx := context.Background()
	for {
		if err := cg.Consume(ctx, topics, h); err != nil {
			if err == sarama.ErrClosedConsumerGroup {
				return
			}
			log.Error("kafka consume", zap.Error(err))
			time.Sleep(time.Second)
		}
	}
}
