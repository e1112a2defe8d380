package poller

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/yeonjoon13/flight-map/internal/poller"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
