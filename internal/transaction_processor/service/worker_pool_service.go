package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/payments-engine/internal/domain/account"
	"github.com/payments-engine/internal/domain/shared"
)

const shardBufferSize = 256

// ErrInvalidPoolSize is returned for a worker pool with fewer than one worker.
var ErrInvalidPoolSize = errors.New("worker pool size must be at least 1")

// WorkerPoolProcessingService partitions a batch by client id and folds each
// partition on its own pooled worker. Accounts never share state, so only the
// order of records within a client matters; routing every record of a client
// to the same partition preserves it.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	shards      int
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	if config.Size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoolSize, config.Size)
	}

	// One worker per shard. Submit blocks until a worker from a previous batch is recycled.
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		shards:      config.Size,
		logger:      logger,
	}, nil
}

type shardResult struct {
	accounts map[uint16]*account.Account
	err      error
}

// ProcessBatch routes records to shards by client id and merges the results.
// The first shard failure cancels the remaining shards.
func (s *WorkerPoolProcessingService) ProcessBatch(ctx context.Context, records iter.Seq[shared.TransactionRecord]) (map[uint16]*account.Account, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inputs := make([]chan shared.TransactionRecord, s.shards)
	results := make([]shardResult, s.shards)
	var wg sync.WaitGroup

	for i := range inputs {
		inputs[i] = make(chan shared.TransactionRecord, shardBufferSize)
	}

	for i := range inputs {
		shard := i
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			accounts, err := s.baseService.ProcessBatch(ctx, drain(inputs[shard]))
			if err != nil {
				cancel()
			}
			results[shard] = shardResult{accounts: accounts, err: err}
		})
		if err != nil {
			wg.Done()
			s.logger.Error("Failed to submit shard to worker pool", "shard", shard, "error", err)
			cancel()
			closeAll(inputs)
			wg.Wait()
			return nil, err
		}
	}

	dispatched := 0
feed:
	for record := range records {
		select {
		case inputs[int(record.Client)%s.shards] <- record:
			dispatched++
		case <-ctx.Done():
			break feed
		}
	}
	closeAll(inputs)
	wg.Wait()

	merged := make(map[uint16]*account.Account)
	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		maps.Copy(merged, r.accounts)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("Partitioned batch folded", "shards", s.shards, "records", dispatched, "accounts", len(merged))
	return merged, nil
}

// drain exposes a channel as a single-pass sequence. A shard that stops early
// returns an error, which cancels the batch and unblocks the feeder.
func drain(ch <-chan shared.TransactionRecord) iter.Seq[shared.TransactionRecord] {
	return func(yield func(shared.TransactionRecord) bool) {
		for record := range ch {
			if !yield(record) {
				return
			}
		}
	}
}

func closeAll(chans []chan shared.TransactionRecord) {
	for _, ch := range chans {
		close(ch)
	}
}

// Shutdown releases the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Debug("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
