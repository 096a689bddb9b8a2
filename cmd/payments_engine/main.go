package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/payments-engine/internal/config"
	"github.com/payments-engine/internal/domain/account"
	"github.com/payments-engine/internal/logger"
	"github.com/payments-engine/internal/platform/csvio"
	"github.com/payments-engine/internal/platform/messaging/producers"
	"github.com/payments-engine/internal/platform/metrics"
	"github.com/payments-engine/internal/transaction_processor/components"
	"github.com/payments-engine/internal/transaction_processor/consumer"
	"github.com/payments-engine/internal/transaction_processor/service"
)

const usage = "usage: payments_engine <transactions.csv>"

// ErrMissingInputPath is returned when no input file is given.
var ErrMissingInputPath = errors.New("missing input path")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run processes the CSV file named by args[0] and writes the final account
// states to stdout. Diagnostics and logs go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 || args[0] == "" {
		fmt.Fprintln(stderr, usage)
		return ErrMissingInputPath
	}
	inputPath := args[0]

	// Initialize configuration
	cfg, err := config.LoadConfig("payments_engine")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return err
	}

	runID := uuid.NewString()
	log := logger.NewLoggerWithWriter(cfg, stderr).With("run_id", runID)

	log.Info("Starting payments engine",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"input", inputPath,
	)

	input, err := os.Open(inputPath)
	if err != nil {
		log.Error("Failed to open input file", "path", inputPath, "error", err)
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer input.Close()

	collector := metrics.NewCollector(log)
	recorder := components.NewOutcomeRecorder(collector, log)

	// Kafka side channels are optional; both constructors return nil when unconfigured.
	var dlq producers.DeadLetterPublisher
	dlqProducer, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka, runID)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		return err
	}
	if dlqProducer != nil {
		dlq = dlqProducer
		defer func() {
			if err := dlqProducer.Close(); err != nil {
				log.Error("Error closing DLQ Kafka producer", "error", err)
			}
		}()
	}

	snapshotProducer, err := producers.NewSnapshotProducer(ctx, log, &cfg.Kafka, runID)
	if err != nil {
		log.Error("Failed to initialize snapshot Kafka producer", "error", err)
		return err
	}
	if snapshotProducer != nil {
		defer func() {
			if err := snapshotProducer.Close(); err != nil {
				log.Error("Error closing snapshot Kafka producer", "error", err)
			}
		}()
	}

	processingService, err := components.CreateProcessingService(cfg, recorder, log)
	if err != nil {
		log.Error("Failed to create processing service", "error", err)
		return err
	}
	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		defer wpService.Shutdown()
	}

	reader := csvio.NewReader(input)
	rowHandler := consumer.NewRowHandler(log, recorder, dlq)

	start := time.Now()
	accounts, err := processingService.ProcessBatch(ctx, rowHandler.Records(ctx, reader.Records()))
	if err != nil {
		log.Error("Batch processing failed", "error", err)
		return err
	}
	if err := reader.Err(); err != nil {
		log.Error("Failed to read input file", "path", inputPath, "error", err)
		return err
	}

	snapshots := account.Snapshots(accounts)
	elapsed := time.Since(start)
	collector.RecordBatch(elapsed, snapshots)

	if err := csvio.NewWriter(stdout).WriteAccounts(snapshots); err != nil {
		log.Error("Failed to write output", "error", err)
		return err
	}

	// Everything below is best effort; the CSV result is already written.
	if snapshotProducer != nil {
		if err := snapshotProducer.PublishSnapshots(ctx, snapshots); err != nil {
			log.Error("Failed to publish account snapshots", "error", err)
		}
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := collector.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			log.Warn("Metrics textfile not written", "path", cfg.Metrics.TextfilePath, "error", err)
		}
	}

	summary, err := collector.Summary()
	if err != nil {
		log.Warn("Failed to summarize metrics", "error", err)
	}
	log.Info("Payments engine finished",
		"accounts", len(snapshots),
		"duration", elapsed.String(),
		"metrics", summary,
	)
	return nil
}
