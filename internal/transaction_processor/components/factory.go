package components

import (
	"log/slog"

	"github.com/payments-engine/internal/config"
	"github.com/payments-engine/internal/data/memory"
	"github.com/payments-engine/internal/domain/account"
	"github.com/payments-engine/internal/transaction_processor/service"
)

// CreateProcessingService creates a new ProcessingService with all its dependencies.
// Batches are partitioned across a worker pool when more than one worker is configured.
func CreateProcessingService(
	cfg *config.Config,
	outcomeRecorder service.OutcomeRecorder,
	logger *slog.Logger,
) (service.ProcessingService, error) {
	policy, err := account.ParseDisputePolicy(cfg.Engine.DisputePolicy)
	if err != nil {
		return nil, err
	}

	newRepository := func() account.Repository {
		return memory.NewAccountStore(policy)
	}

	baseService := service.NewProcessingService(
		newRepository,
		NewAccountManager(logger),
		outcomeRecorder,
		logger,
	)

	if cfg.WorkerPool.Size <= 1 {
		logger.Debug("Created sequential processing service", "dispute_policy", policy)
		return baseService, nil
	}

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService, nil
	}

	logger.Debug("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size, "dispute_policy", policy)
	return workerPoolService, nil
}
