package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/payments-engine/internal/domain/account"
	"github.com/payments-engine/internal/domain/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "payments_engine"

// Collector gathers per-run processing metrics on a private registry.
// All methods are safe for concurrent use.
type Collector struct {
	registry       *prometheus.Registry
	transactions   *prometheus.CounterVec
	rejectedRows   prometheus.Counter
	accounts       prometheus.Gauge
	lockedAccounts prometheus.Gauge
	batchDuration  prometheus.Histogram
	logger         *slog.Logger
}

func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transaction records handled by the ledger, by kind and outcome",
		}, []string{"kind", "outcome"}),
		rejectedRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_rows_total",
			Help:      "Input rows dropped because they could not be parsed",
		}),
		accounts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Accounts in the final snapshot",
		}),
		lockedAccounts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "locked_accounts",
			Help:      "Locked accounts in the final snapshot",
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time taken to fold the whole input",
			Buckets:   prometheus.DefBuckets,
		}),
		logger: logger,
	}
}

func (c *Collector) RecordTransaction(kind shared.TransactionKind, outcome shared.Outcome) {
	c.transactions.WithLabelValues(string(kind), string(outcome)).Inc()
}

func (c *Collector) RecordRejectedRow() {
	c.rejectedRows.Inc()
}

// RecordBatch stores the size of the final snapshot and how long it took.
func (c *Collector) RecordBatch(duration time.Duration, snapshots []account.Snapshot) {
	locked := 0
	for _, s := range snapshots {
		if s.Locked {
			locked++
		}
	}
	c.accounts.Set(float64(len(snapshots)))
	c.lockedAccounts.Set(float64(locked))
	c.batchDuration.Observe(duration.Seconds())
}

// Summary flattens the counters and gauges into name -> value, with label
// values appended as name{label=value,...}.
func (c *Collector) Summary() (map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	summary := make(map[string]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			key := family.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				key += "{"
				for i, l := range labels {
					if i > 0 {
						key += ","
					}
					key += l.GetName() + "=" + l.GetValue()
				}
				key += "}"
			}
			switch {
			case m.GetCounter() != nil:
				summary[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				summary[key] = m.GetGauge().GetValue()
			}
		}
	}
	return summary, nil
}

// WriteTextfile exports the registry in the Prometheus text format, for the
// node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		c.logger.Error("Failed to write metrics textfile", "path", path, "error", err)
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	c.logger.Debug("Metrics textfile written", "path", path)
	return nil
}
