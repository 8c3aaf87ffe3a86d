package shared

import (
	"github.com/xraph/go-utils/metrics"
)

// Metrics provides telemetry collection.
type Metrics = metrics.Metrics

// Counter tracks monotonically increasing values.
type Counter = metrics.Counter

// Gauge tracks values that can go up or down.
type Gauge = metrics.Gauge

// Histogram tracks distributions of values.
type Histogram = metrics.Histogram
