package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"ecodeli-delivery/internal/config"
	"ecodeli-delivery/internal/gateway/payments"
	"ecodeli-delivery/internal/logx"
	"ecodeli-delivery/internal/service/delivery"
)

type paymentsConnCloser func() error

type paymentsIn struct {
	dig.In

	Config  *config.Config
	Logger  logx.Logger
	Retries prometheus.Counter `name:"gateway_retries_total"`
}

type paymentsOut struct {
	dig.Out

	Releaser delivery.PaymentReleaser
	Closer   paymentsConnCloser
}

var dialPayments = payments.Dial

func providePayments(in paymentsIn) (paymentsOut, error) {
	pc := in.Config.Payments
	if pc.Addr == "" {
		in.Logger.Warn("payments address is not configured, releasing payments locally")
		return paymentsOut{
			Releaser: payments.NewLocalReleaser(),
			Closer:   func() error { return nil },
		}, nil
	}

	conn, err := dialPayments(pc.Addr)
	if err != nil {
		return paymentsOut{}, err
	}
	gw := payments.NewRetryingGateway(payments.NewGRPCGateway(conn), in.Logger, in.Retries, payments.RetryConfig{
		MaxAttempts:    pc.MaxAttempts,
		AttemptTimeout: pc.Timeout,
		BaseDelay:      pc.BaseDelay,
		MaxDelay:       pc.MaxDelay,
	})
	return paymentsOut{Releaser: gw, Closer: conn.Close}, nil
}
