package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hubward/hubward/internal/platform/ssh"
	"github.com/hubward/hubward/internal/provisioning"
)

var (
	provisionRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubward",
			Subsystem: "provision",
			Name:      "runs_total",
			Help:      "Provisioning runs by final state, including rejected requests",
		},
		[]string{"state"},
	)

	provisionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hubward",
			Subsystem: "provision",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of provisioning runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 11),
		},
		[]string{"state"},
	)

	stageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubward",
			Subsystem: "provision",
			Name:      "stage_failures_total",
			Help:      "Failed provisioning runs by the stage that caused the failure",
		},
		[]string{"stage"},
	)

	connectRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hubward",
			Subsystem: "session",
			Name:      "connect_retries_total",
			Help:      "Failed connection attempts that were retried",
		},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hubward",
			Subsystem: "session",
			Name:      "active",
			Help:      "Live sessions held by the registry",
		},
	)
)

func init() {
	prometheus.MustRegister(
		provisionRunsTotal,
		provisionDuration,
		stageFailuresTotal,
		connectRetriesTotal,
		activeSessions,
	)
}

func recordRun(state string, elapsed time.Duration) {
	provisionRunsTotal.WithLabelValues(state).Inc()
	provisionDuration.WithLabelValues(state).Observe(elapsed.Seconds())
}

func recordRejectedRun() {
	provisionRunsTotal.WithLabelValues("rejected").Inc()
}

func recordStageFailure(stage string) {
	stageFailuresTotal.WithLabelValues(stage).Inc()
}

func recordConnectRetry() {
	connectRetriesTotal.Inc()
}

func setActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// InstrumentConnector wraps a connector so every failed connection
// attempt it reports is counted, on top of whatever notify callback the
// pipeline installs.
func InstrumentConnector(inner provisioning.Connector) provisioning.Connector {
	return connectorFunc(func(ctx context.Context, cfg *ssh.Config, notify func(attempt int, err error)) (provisioning.Executor, error) {
		counted := func(attempt int, err error) {
			recordConnectRetry()
			if notify != nil {
				notify(attempt, err)
			}
		}
		return inner.Connect(ctx, cfg, counted)
	})
}

type connectorFunc func(ctx context.Context, cfg *ssh.Config, notify func(attempt int, err error)) (provisioning.Executor, error)

func (f connectorFunc) Connect(ctx context.Context, cfg *ssh.Config, notify func(attempt int, err error)) (provisioning.Executor, error) {
	return f(ctx, cfg, notify)
}
