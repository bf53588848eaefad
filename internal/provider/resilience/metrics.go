package resilience

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/geocycle/geocycle/internal/provider/resilience"

// Metrics records upstream call duration and outcome per provider.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	circuitRejected metric.Int64Counter
}

// NewMetrics creates the upstream call instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of upstream provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of upstream provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	circuitRejected, err := meter.Int64Counter(
		"provider.circuit.rejected",
		metric.WithDescription("Requests rejected while the circuit breaker was open"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		circuitRejected: circuitRejected,
	}, nil
}

// RecordRequest records one upstream call. status is 0 when no response
// was received.
func (m *Metrics) RecordRequest(provider string, status int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.Int("http.response.status_code", status),
	}
	if err != nil || status >= 500 {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Background context so a cancelled request still gets counted.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRejected counts a call short-circuited by an open breaker.
func (m *Metrics) RecordRejected(provider string) {
	if m == nil {
		return
	}
	m.circuitRejected.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("provider.name", provider)))
}
