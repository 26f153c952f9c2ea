package config

import "time"

const (
	defaultPort     = 8080
	defaultLogLevel = "info"
)

var defaultDB = DB{
	Host:    "127.0.0.1",
	Port:    "5432",
	User:    "ecodeli",
	Pass:    "ecodeli",
	Name:    "ecodeli",
	Migrate: true,
}

var defaultKafka = Kafka{
	GroupID:        "delivery-worker",
	TelemetryTopic: "courier.telemetry",
	EventsTopic:    "delivery.events",
}

var defaultDelivery = Delivery{
	OperationTimeout: 10 * time.Second,
	RecentTracking:   10,
}

// five attempts, then one more per minute
var defaultValidation = Validation{
	Enabled: true,
	Burst:   5,
	Window:  time.Minute,
	TTL:     time.Hour,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       50,
	Burst:      100,
	TTL:        5 * time.Minute,
	MaxBuckets: 10000,
}

var defaultOutbox = Outbox{
	PollInterval: time.Second,
	BatchSize:    100,
	MaxAttempts:  10,
	Lease:        time.Minute,
}

// three releases of 2s plus backoff stay well inside the operation timeout
var defaultPayments = Payments{
	Timeout:     2 * time.Second,
	MaxAttempts: 3,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    time.Second,
}

var defaultWorker = Worker{
	MetricsAddr: ":9090",
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultDelivery returns the default delivery settings.
func DefaultDelivery() Delivery {
	return defaultDelivery
}

// DefaultValidation returns the default validation attempt budget.
func DefaultValidation() Validation {
	return defaultValidation
}

// DefaultPayments returns the default payment client settings.
func DefaultPayments() Payments {
	return defaultPayments
}
