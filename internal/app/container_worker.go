package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"ecodeli-delivery/internal/config"
	"ecodeli-delivery/internal/http/handlers"
	"ecodeli-delivery/internal/logx"
	"ecodeli-delivery/internal/outbox"
	"ecodeli-delivery/internal/repository"
	"ecodeli-delivery/internal/service/delivery"
	"ecodeli-delivery/internal/service/telemetry"
	"ecodeli-delivery/internal/transport/kafka"
)

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		repository.NewOutboxRepo,
		func(repo *repository.OutboxRepo) outbox.Store { return repo },
		provideProducer,
		newRelay,
		func(svc *delivery.Service) telemetry.DeliveryPort { return svc },
		telemetry.NewProcessor,
		newTelemetryConsumer,
		newWorkerMetricsServer,
	)
}

func provideProducer(cfg *config.Config, logger logx.Logger) (*kafka.Producer, error) {
	return kafka.NewProducer(logger, cfg.Kafka.Brokers)
}

type relayIn struct {
	dig.In

	Config   *config.Config
	Logger   logx.Logger
	Store    outbox.Store
	Producer *kafka.Producer
	Metrics  outbox.Metrics
}

// newRelay returns nil when no brokers are configured.
func newRelay(in relayIn) *outbox.Relay {
	if in.Producer == nil {
		return nil
	}
	oc := in.Config.Outbox
	return outbox.NewRelay(in.Store, in.Producer, in.Metrics, in.Logger, outbox.Config{
		Topic:        in.Config.Kafka.EventsTopic,
		PollInterval: oc.PollInterval,
		BatchSize:    oc.BatchSize,
		MaxAttempts:  oc.MaxAttempts,
		Lease:        oc.Lease,
	})
}

func newTelemetryConsumer(cfg *config.Config, logger logx.Logger, p *telemetry.Processor) (*kafka.Consumer, error) {
	return kafka.NewConsumer(logger, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.TelemetryTopic, p.Handle)
}

// newWorkerMetricsServer serves the worker's collectors; nil when no address is configured.
func newWorkerMetricsServer(cfg *config.Config, logger logx.Logger) *http.Server {
	if cfg.Worker.MetricsAddr == "" {
		return nil
	}
	h := handlers.New(logger)
	r := chi.NewRouter()
	r.Get("/ping", h.Ping)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              cfg.Worker.MetricsAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
