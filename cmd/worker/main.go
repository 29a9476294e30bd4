package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/countaustin1990/responsive-travel-website/config"
	"github.com/countaustin1990/responsive-travel-website/internal/email"
	"github.com/countaustin1990/responsive-travel-website/internal/kafka"
	"github.com/countaustin1990/responsive-travel-website/internal/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log := logger.New(cfg.Log)
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("worker requires kafka.brokers")
	}

	var sender kafka.Sender = email.NewSMTPSender(cfg.SMTP)
	if cfg.SMTP.Host == "" {
		log.Warn("smtp.host not set, queued notifications are only logged")
		sender = email.NewLogSender(log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewNotificationConsumer(cfg.Kafka, sender, log)
	defer consumer.Close()

	log.WithFields(logrus.Fields{
		"topic": cfg.Kafka.NotificationsTopic,
		"group": cfg.Kafka.GroupID,
	}).Info("notification worker started")

	if err := consumer.Run(ctx); err != nil {
		log.WithError(err).Error("consumer stopped")
		return
	}
	log.Info("notification worker stopped")
}
