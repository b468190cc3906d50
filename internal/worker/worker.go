// Package worker implements the background catalogue sync on top of asynq.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"currencyconverter/internal/service"
)

// TaskTypeSyncCatalogue refreshes the stored and cached currency catalogue.
const TaskTypeSyncCatalogue = "catalogue:sync"

// NewSyncCatalogueTask builds a payload-less sync task.
func NewSyncCatalogueTask(opts ...asynq.Option) *asynq.Task {
	return asynq.NewTask(TaskTypeSyncCatalogue, nil, opts...)
}

// NewCatalogueSyncHandler returns a function to handle catalogue sync tasks.
// Returning the error lets asynq retry the task.
func NewCatalogueSyncHandler(svc service.CurrencyServiceInterface, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		n, err := svc.SyncCatalogue(ctx)
		if err != nil {
			logger.Errorw("Task processing failed", "type", t.Type(), "error", err)
			return err
		}

		logger.Infow("Task completed", "type", t.Type(), "currencies", n, "duration_ms", time.Since(start).Milliseconds())
		return nil
	}
}

// NewServeMux routes every task type this package handles.
func NewServeMux(svc service.CurrencyServiceInterface, logger *zap.SugaredLogger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSyncCatalogue, NewCatalogueSyncHandler(svc, logger))
	return mux
}

// AsynqEnqueuer is responsible for enqueuing tasks to an Asynq queue with specific configurations for retries and timeouts.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, retry limit, and task timeout duration.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// TaskOptions are applied to every sync task. Unique keeps concurrent
// replicas from queueing the same sync twice within one timeout window.
func (e *AsynqEnqueuer) TaskOptions() []asynq.Option {
	return []asynq.Option{
		asynq.MaxRetry(e.maxRetry),
		asynq.Timeout(e.timeout),
		asynq.Unique(e.timeout),
	}
}

// EnqueueSync enqueues an immediate catalogue sync. A duplicate of a sync
// already in the queue is not an error.
func (e *AsynqEnqueuer) EnqueueSync(ctx context.Context) error {
	_, err := e.client.EnqueueContext(ctx, NewSyncCatalogueTask(e.TaskOptions()...))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return fmt.Errorf("enqueue %s: %w", TaskTypeSyncCatalogue, err)
	}
	return nil
}

// RegisterSchedule registers the periodic sync on the scheduler.
// An empty cronspec disables it.
func (e *AsynqEnqueuer) RegisterSchedule(s *asynq.Scheduler, cronspec string) (string, error) {
	if cronspec == "" {
		return "", nil
	}
	id, err := s.Register(cronspec, NewSyncCatalogueTask(e.TaskOptions()...))
	if err != nil {
		return "", fmt.Errorf("register %s schedule %q: %w", TaskTypeSyncCatalogue, cronspec, err)
	}
	return id, nil
}
