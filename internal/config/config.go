package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores PostgreSQL settings.
type DB struct {
	Host    string
	Port    string
	User    string
	Pass    string
	Name    string
	Migrate bool
}

// DSN returns the connection string for pgx.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Kafka stores broker settings shared by the worker's consumer and producer.
type Kafka struct {
	Brokers        []string
	GroupID        string
	TelemetryTopic string
	EventsTopic    string
}

// Delivery stores settings of the delivery core.
type Delivery struct {
	OperationTimeout time.Duration
	RecentTracking   int
}

// Validation stores the per delivery and client attempt budget of code validation.
type Validation struct {
	Enabled bool
	Burst   int
	Window  time.Duration
	TTL     time.Duration
}

// RateLimit stores the per client address limit of the HTTP API.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Outbox stores relay settings.
type Outbox struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	Lease        time.Duration
}

// Payments stores the payment subsystem client settings.
// An empty Addr releases payments locally.
type Payments struct {
	Addr        string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Budget is the longest a release may take with every attempt timing out and
// every backoff slept in full.
func (p Payments) Budget() time.Duration {
	total := time.Duration(p.MaxAttempts) * p.Timeout
	for attempt := 1; attempt < p.MaxAttempts; attempt++ {
		total += min(p.BaseDelay<<(attempt-1), p.MaxDelay)
	}
	return total
}

// Worker stores settings of the background worker process.
type Worker struct {
	MetricsAddr string
}

// Pprof stores profiling server settings. An empty Addr disables it.
type Pprof struct {
	Addr string
	User string
	Pass string
}

// Config stores service settings.
type Config struct {
	Port       int
	LogLevel   string
	DB         DB
	Kafka      Kafka
	Delivery   Delivery
	Validation Validation
	RateLimit  RateLimit
	Outbox     Outbox
	Payments   Payments
	Worker     Worker
	Pprof      Pprof
}

// Load reads configuration in order: .env (if present) → environment → command line flags.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit command line arguments.
func LoadArgs(args []string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	fs := pflag.NewFlagSet("ecodeli-delivery", pflag.ContinueOnError)
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.DB.Migrate, "migrate", cfg.DB.Migrate, "apply database migrations on startup")
	fs.StringSliceVar(&cfg.Kafka.Brokers, "kafka-brokers", cfg.Kafka.Brokers, "kafka brokers")
	fs.StringVar(&cfg.Payments.Addr, "payments-addr", cfg.Payments.Addr, "payment service gRPC address")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	e := &envReader{}
	cfg := &Config{
		Port:     e.int("PORT", defaultPort),
		LogLevel: e.string("LOG_LEVEL", defaultLogLevel),
		DB: DB{
			Host:    e.string("POSTGRES_HOST", defaultDB.Host),
			Port:    e.port("POSTGRES_PORT", defaultDB.Port),
			User:    e.string("POSTGRES_USER", defaultDB.User),
			Pass:    e.string("POSTGRES_PASSWORD", defaultDB.Pass),
			Name:    e.string("POSTGRES_DB", defaultDB.Name),
			Migrate: e.bool("DB_MIGRATE", defaultDB.Migrate),
		},
		Kafka: Kafka{
			Brokers:        e.list("KAFKA_BROKERS"),
			GroupID:        e.string("KAFKA_GROUP_ID", defaultKafka.GroupID),
			TelemetryTopic: e.string("KAFKA_TELEMETRY_TOPIC", defaultKafka.TelemetryTopic),
			EventsTopic:    e.string("KAFKA_EVENTS_TOPIC", defaultKafka.EventsTopic),
		},
		Delivery: Delivery{
			OperationTimeout: e.duration("DELIVERY_OPERATION_TIMEOUT", defaultDelivery.OperationTimeout),
			RecentTracking:   e.int("DELIVERY_RECENT_TRACKING", defaultDelivery.RecentTracking),
		},
		Validation: Validation{
			Enabled: e.bool("VALIDATION_LIMIT_ENABLED", defaultValidation.Enabled),
			Burst:   e.int("VALIDATION_LIMIT_BURST", defaultValidation.Burst),
			Window:  e.duration("VALIDATION_LIMIT_WINDOW", defaultValidation.Window),
			TTL:     e.duration("VALIDATION_LIMIT_TTL", defaultValidation.TTL),
		},
		RateLimit: RateLimit{
			Enabled:    e.bool("RATE_LIMIT_ENABLED", defaultRateLimit.Enabled),
			Rate:       e.float("RATE_LIMIT_RATE", defaultRateLimit.Rate),
			Burst:      e.int("RATE_LIMIT_BURST", defaultRateLimit.Burst),
			TTL:        e.duration("RATE_LIMIT_TTL", defaultRateLimit.TTL),
			MaxBuckets: e.int("RATE_LIMIT_MAX_BUCKETS", defaultRateLimit.MaxBuckets),
		},
		Outbox: Outbox{
			PollInterval: e.duration("OUTBOX_POLL_INTERVAL", defaultOutbox.PollInterval),
			BatchSize:    e.int("OUTBOX_BATCH_SIZE", defaultOutbox.BatchSize),
			MaxAttempts:  e.int("OUTBOX_MAX_ATTEMPTS", defaultOutbox.MaxAttempts),
			Lease:        e.duration("OUTBOX_LEASE", defaultOutbox.Lease),
		},
		Payments: Payments{
			Addr:        e.string("PAYMENTS_ADDR", ""),
			Timeout:     e.duration("PAYMENTS_TIMEOUT", defaultPayments.Timeout),
			MaxAttempts: e.int("PAYMENTS_MAX_ATTEMPTS", defaultPayments.MaxAttempts),
			BaseDelay:   e.duration("PAYMENTS_BASE_DELAY", defaultPayments.BaseDelay),
			MaxDelay:    e.duration("PAYMENTS_MAX_DELAY", defaultPayments.MaxDelay),
		},
		Worker: Worker{
			MetricsAddr: e.string("WORKER_METRICS_ADDR", defaultWorker.MetricsAddr),
		},
		Pprof: Pprof{
			Addr: e.string("PPROF_ADDR", ""),
			User: e.string("PPROF_USER", ""),
			Pass: e.string("PPROF_PASS", ""),
		},
	}
	if e.err != nil {
		return nil, e.err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.LogLevel))
	}
	if c.Delivery.OperationTimeout <= 0 {
		errs = append(errs, errors.New("delivery operation timeout must be positive"))
	}
	if c.Delivery.RecentTracking <= 0 {
		errs = append(errs, errors.New("delivery recent tracking must be positive"))
	}
	if c.Validation.Enabled && (c.Validation.Burst <= 0 || c.Validation.Window <= 0) {
		errs = append(errs, errors.New("validation limit needs positive burst and window"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit needs positive rate and burst"))
	}
	if c.Outbox.PollInterval <= 0 || c.Outbox.BatchSize <= 0 || c.Outbox.MaxAttempts <= 0 {
		errs = append(errs, errors.New("outbox poll interval, batch size and max attempts must be positive"))
	}
	if c.Payments.MaxAttempts <= 0 || c.Payments.Timeout <= 0 {
		errs = append(errs, errors.New("payments timeout and max attempts must be positive"))
	}
	if c.Payments.MaxDelay < c.Payments.BaseDelay {
		errs = append(errs, errors.New("payments max delay is below base delay"))
	}
	// the release runs inside the validation transaction
	if c.Payments.Addr != "" && c.Payments.Budget() >= c.Delivery.OperationTimeout {
		errs = append(errs, fmt.Errorf("payments retry budget %s does not fit the delivery operation timeout %s",
			c.Payments.Budget(), c.Delivery.OperationTimeout))
	}
	return errors.Join(errs...)
}
