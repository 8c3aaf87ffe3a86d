package anchor

import (
	"github.com/xraph/anchor/internal/shared"
)

// Metrics is the metrics collection interface the engine reports to.
type Metrics = shared.Metrics
