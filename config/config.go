package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	NotifyLog   = "log"
	NotifySMTP  = "smtp"
	NotifyKafka = "kafka"

	DefaultPriceTolerance = 0.01
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	HTTP          HTTPConfig          `yaml:"http"`
	Log           LogConfig           `yaml:"log"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Booking       BookingConfig       `yaml:"booking"`
	Notifications NotificationsConfig `yaml:"notifications"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
}

type AppConfig struct {
	Env        string `yaml:"env"`
	AdminEmail string `yaml:"admin_email"`
}

func (a AppConfig) IsDevelopment() bool {
	return a.Env == EnvDevelopment
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	SwaggerDir      string        `yaml:"swagger_dir"`
	StaticDir       string        `yaml:"static_dir"`
	FrontendURL     string        `yaml:"frontend_url"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// honoured. Empty means the socket peer is the client address.
	TrustedProxies []string `yaml:"trusted_proxies"`
	BodyLimitBytes  int64         `yaml:"body_limit_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type SMTPConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	From        string        `yaml:"from"`
	ImplicitTLS bool          `yaml:"implicit_tls"`
	Timeout     time.Duration `yaml:"timeout"`
}

type BookingConfig struct {
	IDPrefix         string  `yaml:"id_prefix"`
	TrustClientPrice bool    `yaml:"trust_client_price"`
	// PriceTolerance is nil when unset; 0 demands an exact match.
	PriceTolerance *float64 `yaml:"price_tolerance"`
}

type NotificationsConfig struct {
	// Mode is one of "log", "smtp" or "kafka".
	Mode    string        `yaml:"mode"`
	Async   bool          `yaml:"async"`
	Timeout time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	Disabled bool      `yaml:"disabled"`
	Prefix   string    `yaml:"prefix"`
	General  LimitRule `yaml:"general"`
	Booking  LimitRule `yaml:"booking"`
}

type LimitRule struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// LoadConfig reads .env (if present), then the YAML file at path, then
// environment overrides, and finally fills defaults. A missing YAML file is
// not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.HTTP.Address = ":" + v
	}
	if v := firstEnv("APP_ENV", "NODE_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		c.HTTP.FrontendURL = v
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		c.HTTP.TrustedProxies = splitList(v)
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		c.App.AdminEmail = v
	}
	if v := os.Getenv("EMAIL_USER"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("EMAIL_PASS"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		c.SMTP.Port = port
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("NOTIFICATIONS_MODE"); v != "" {
		c.Notifications.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = EnvProduction
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":3000"
	}
	if c.HTTP.FrontendURL == "" {
		c.HTTP.FrontendURL = "http://localhost:3000"
	}
	if c.HTTP.BodyLimitBytes <= 0 {
		c.HTTP.BodyLimitBytes = 10 << 20
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.Username
	}
	if c.App.AdminEmail == "" {
		c.App.AdminEmail = c.SMTP.From
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "travel.notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "travel-notifier"
	}
	if c.Booking.IDPrefix == "" {
		c.Booking.IDPrefix = "BK"
	}
	if c.Booking.PriceTolerance == nil {
		tolerance := DefaultPriceTolerance
		c.Booking.PriceTolerance = &tolerance
	}
	if c.Notifications.Mode == "" {
		c.Notifications.Mode = NotifyLog
		if c.SMTP.Host != "" {
			c.Notifications.Mode = NotifySMTP
		}
	}
	if c.Notifications.Timeout <= 0 {
		c.Notifications.Timeout = 30 * time.Second
	}
	if c.RateLimit.Prefix == "" {
		c.RateLimit.Prefix = "rl"
	}
	if c.RateLimit.General.Limit <= 0 {
		c.RateLimit.General = LimitRule{Limit: 100, Window: 15 * time.Minute}
	}
	if c.RateLimit.Booking.Limit <= 0 {
		c.RateLimit.Booking = LimitRule{Limit: 5, Window: time.Hour}
	}
	if c.RateLimit.General.Window <= 0 {
		c.RateLimit.General.Window = 15 * time.Minute
	}
	if c.RateLimit.Booking.Window <= 0 {
		c.RateLimit.Booking.Window = time.Hour
	}
}

func (c *Config) Validate() error {
	if c.Booking.PriceTolerance != nil && *c.Booking.PriceTolerance < 0 {
		return fmt.Errorf("booking.price_tolerance must not be negative, got %v", *c.Booking.PriceTolerance)
	}
	switch c.Notifications.Mode {
	case NotifyLog:
	case NotifySMTP:
		if c.SMTP.Host == "" {
			return errors.New("notifications mode smtp requires smtp.host")
		}
	case NotifyKafka:
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("notifications mode kafka requires kafka.brokers")
		}
	default:
		return fmt.Errorf("unknown notifications mode %q", c.Notifications.Mode)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
