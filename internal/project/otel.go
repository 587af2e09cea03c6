package project

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tmcoach/board/internal/project"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	saves          metric.Int64Counter
	loads          metric.Int64Counter
	decodeFailures metric.Int64Counter
}

func newMetrics() (metrics, error) {
	m := meter()
	var out metrics
	var err error
	if out.saves, err = m.Int64Counter("tmc.project.saves",
		metric.WithDescription("Projects written to the store")); err != nil {
		return out, fmt.Errorf("create saves counter: %w", err)
	}
	if out.loads, err = m.Int64Counter("tmc.project.loads",
		metric.WithDescription("Projects read from the store")); err != nil {
		return out, fmt.Errorf("create loads counter: %w", err)
	}
	if out.decodeFailures, err = m.Int64Counter("tmc.project.decode_failures",
		metric.WithDescription("Stored or uploaded documents that failed to decode")); err != nil {
		return out, fmt.Errorf("create decode failures counter: %w", err)
	}
	return out, nil
}
