package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/countaustin1990/responsive-travel-website/config"
	"github.com/countaustin1990/responsive-travel-website/internal/bootstrap"
	"github.com/countaustin1990/responsive-travel-website/internal/cache"
	"github.com/countaustin1990/responsive-travel-website/internal/email"
	"github.com/countaustin1990/responsive-travel-website/internal/idgen"
	"github.com/countaustin1990/responsive-travel-website/internal/kafka"
	"github.com/countaustin1990/responsive-travel-website/internal/logger"
	"github.com/countaustin1990/responsive-travel-website/internal/middleware"
	"github.com/countaustin1990/responsive-travel-website/internal/repository"
	"github.com/countaustin1990/responsive-travel-website/internal/service/booking"
	"github.com/countaustin1990/responsive-travel-website/internal/service/contact"
	"github.com/countaustin1990/responsive-travel-website/internal/service/pricing"
	"github.com/countaustin1990/responsive-travel-website/internal/validation"
	"github.com/gin-gonic/gin"
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
	if !cfg.App.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := newLimiter(ctx, cfg, log)
	if limiter != nil {
		defer limiter.Close()
	}

	notifier, closeNotifier := newNotifier(ctx, cfg, log)
	defer closeNotifier()

	prices := pricing.NewCalculator()
	validator := validation.New()
	renderer := email.NewRenderer(cfg.App.AdminEmail)

	opts := []booking.BookingServiceOption{booking.WithPriceTolerance(*cfg.Booking.PriceTolerance)}
	if cfg.Booking.TrustClientPrice {
		opts = append(opts, booking.WithClientPrice())
	}
	if cfg.Notifications.Async {
		opts = append(opts, booking.WithAsyncNotifications(cfg.Notifications.Timeout))
	}

	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(),
		idgen.NewBookingIDs(cfg.Booking.IDPrefix, nil),
		validator,
		prices,
		notifier,
		renderer,
		log,
		opts...,
	)
	defer bookingService.Close()

	contactService := contact.NewContactService(validator, notifier, renderer, log)

	var counter middleware.Counter
	if limiter != nil {
		counter = limiter
	}

	services := bootstrap.Services{
		Bookings: bookingService,
		Contacts: contactService,
		Pricing:  prices,
		Stats:    bookingService,
	}
	if err := bootstrap.Run(ctx, cfg, services, counter, log); err != nil {
		log.WithError(err).Error("server stopped")
		return
	}
	log.Info("server stopped")
}

// newLimiter returns nil when rate limiting is off or Redis is not configured.
// An unreachable Redis at startup is logged; requests fail open until it
// recovers.
func newLimiter(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) *cache.RedisCache {
	if cfg.RateLimit.Disabled || cfg.Redis.Addr == "" {
		log.Warn("rate limiting disabled")
		return nil
	}

	limiter := cache.NewRedisCache(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := limiter.Ping(pingCtx); err != nil {
		log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("redis unreachable, rate limits fail open")
	}
	return limiter
}

func newNotifier(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (booking.Notifier, func()) {
	switch cfg.Notifications.Mode {
	case config.NotifySMTP:
		log.WithField("host", cfg.SMTP.Host).Info("sending notifications over smtp")
		return email.NewSMTPSender(cfg.SMTP), func() {}
	case config.NotifyKafka:
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := producer.CheckConnection(checkCtx); err != nil {
			log.WithError(err).Warn("kafka unreachable, notifications will be retried per message")
		}
		log.WithField("topic", cfg.Kafka.NotificationsTopic).Info("queueing notifications on kafka")
		return kafka.NewQueuedNotifier(producer, cfg.Kafka.NotificationsTopic), func() {
			if err := producer.Close(); err != nil {
				log.WithError(err).Warn("close kafka producer")
			}
		}
	default:
		log.Info("notifications are logged, not delivered")
		return email.NewLogSender(log), func() {}
	}
}
