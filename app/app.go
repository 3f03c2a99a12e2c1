package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/libtrack/book-reserve/config"
	"github.com/libtrack/book-reserve/internal/handler"
	"github.com/libtrack/book-reserve/internal/repository"
	"github.com/libtrack/book-reserve/internal/server"
	"github.com/libtrack/book-reserve/internal/service"
	"github.com/libtrack/book-reserve/migrations"
	"github.com/libtrack/book-reserve/pkg/auth"
	"github.com/libtrack/book-reserve/pkg/kafka"
	"github.com/libtrack/book-reserve/pkg/logger"
	"github.com/libtrack/book-reserve/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "book-reserve")
	auth.JWTKey = []byte(cfg.Auth.JWTSecret)

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo init %v", err)
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("kafka.NewProducer %v", err)
	}
	events := service.NewEventPublisher(producer, kafka.ReservationTopic)

	svc := service.NewService(repo, events, log)
	h := handler.New(svc, log)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.AuditConsumerGroup)
	if err != nil {
		return fmt.Errorf("kafka.NewConsumer %v", err)
	}
	go kafka.Consume(consumer, handler.NewConsumer(svc.RecordEvent, log), log, kafka.ReservationTopic)

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	if err = consumer.Close(); err != nil {
		log.Error("consumer.Close", zap.Error(err))
	}
	if err = producer.Close(); err != nil {
		log.Error("producer.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
