package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider initializes the Prometheus exporter and MeterProvider
// and starts Go runtime metrics collection. It returns an http.Handler for
// the /metrics endpoint and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(serviceResource(serviceName, serviceVersion)),
	)

	otel.SetMeterProvider(mp)

	if err := runtime.Start(); err != nil {
		return nil, nil, err
	}

	return promhttp.Handler(), mp.Shutdown, nil
}

// IntakeMetrics holds the order intake instruments. DecrementRaces counts
// conditional decrements that failed after the order row already existed,
// i.e. the accepted post-commit inconsistency window.
type IntakeMetrics struct {
	OrdersCreated  metric.Int64Counter
	DecrementRaces metric.Int64Counter
}

func NewIntakeMetrics() (*IntakeMetrics, error) {
	meter := otel.Meter("orders/intake")

	created, err := meter.Int64Counter("orders_created_total",
		metric.WithDescription("Orders accepted by the intake endpoint"),
	)
	if err != nil {
		return nil, err
	}

	races, err := meter.Int64Counter("stock_decrement_races_total",
		metric.WithDescription("Stock decrements that lost the race after order creation"),
	)
	if err != nil {
		return nil, err
	}

	return &IntakeMetrics{
		OrdersCreated:  created,
		DecrementRaces: races,
	}, nil
}
