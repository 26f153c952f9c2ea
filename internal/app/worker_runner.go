package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"ecodeli-delivery/internal/logx"
	"ecodeli-delivery/internal/outbox"
	"ecodeli-delivery/internal/transport/kafka"
)

var errNothingToRun = errors.New("kafka is not configured: worker has nothing to run")

// WorkerRunner runs the outbox relay and the telemetry consumer
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun runs the worker using the provided DI container and panics on failure
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

type workerDeps struct {
	dig.In

	Ctx      context.Context
	Logger   logx.Logger
	Pool     *pgxpool.Pool
	Relay    *outbox.Relay
	Consumer *kafka.Consumer
	Producer *kafka.Producer
	Metrics  *http.Server       `optional:"true"`
	Payments paymentsConnCloser `optional:"true"`
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(d workerDeps) error {
	if d.Relay == nil && d.Consumer == nil {
		return errNothingToRun
	}
	defer closeWorker(d)

	g, ctx := errgroup.WithContext(d.Ctx)
	if d.Relay != nil {
		g.Go(func() error { return d.Relay.Run(ctx) })
	}
	if d.Consumer != nil {
		g.Go(func() error { return d.Consumer.Run(ctx) })
	}
	if d.Metrics != nil {
		errCh := make(chan error, 1)
		startServer(d.Metrics, d.Logger, "worker-metrics", errCh)
		g.Go(func() error {
			select {
			case <-ctx.Done():
				gracefulShutdown(d.Metrics, d.Logger, shutdownTimeout)
				return nil
			case err := <-errCh:
				return err
			}
		})
	}

	d.Logger.Info("delivery worker started",
		logx.Bool("relay", d.Relay != nil),
		logx.Bool("telemetry", d.Consumer != nil),
	)
	return g.Wait()
}

func closeWorker(d workerDeps) {
	if d.Consumer != nil {
		if err := d.Consumer.Close(); err != nil {
			d.Logger.Error("kafka consumer close error", logx.Err(err))
		}
	}
	if d.Producer != nil {
		if err := d.Producer.Close(); err != nil {
			d.Logger.Error("kafka producer close error", logx.Err(err))
		}
	}
	closeResources(d.Pool, d.Payments, d.Logger)
}
