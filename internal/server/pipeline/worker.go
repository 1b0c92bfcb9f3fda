package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/logging"
)

// Runner is the unit of work the worker executes per queued recording.
type Runner interface {
	Run(ctx context.Context, recordingID string) error
}

// Worker decouples pipeline execution from the HTTP request lifetime: finish
// handlers enqueue a recording id and return; a single consumer goroutine
// drains the queue. A per-recording in-flight set makes a duplicate enqueue
// a no-op while the previous job is still queued or running.
type Worker struct {
	runner Runner
	queue  chan string
	logger logging.Logger

	mu       sync.Mutex
	inflight map[string]struct{}

	wg sync.WaitGroup
}

func NewWorker(runner Runner, queueSize int, logger logging.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Worker{
		runner:   runner,
		queue:    make(chan string, queueSize),
		logger:   logger.With("module", "pipeline_worker"),
		inflight: make(map[string]struct{}),
	}
}

// Start launches the consumer goroutine. It exits when ctx is cancelled;
// queued but unprocessed jobs are dropped, consistent with runs having no
// durability guarantee.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case id := <-w.queue:
				w.process(ctx, id)
			}
		}
	}()
}

// Wait blocks until the consumer goroutine has stopped.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Enqueue schedules one pipeline run for the recording. Returns false when
// the recording is already queued/running or the queue is full; neither case
// blocks the caller.
func (w *Worker) Enqueue(recordingID string) bool {
	w.mu.Lock()
	if _, dup := w.inflight[recordingID]; dup {
		w.mu.Unlock()
		w.logger.Info(context.Background(), "pipeline run already pending", "recording_id", recordingID)
		return false
	}
	w.inflight[recordingID] = struct{}{}
	w.mu.Unlock()

	select {
	case w.queue <- recordingID:
		return true
	default:
		w.release(recordingID)
		w.logger.Warn(context.Background(), "pipeline queue full, dropping job", "recording_id", recordingID)
		return false
	}
}

func (w *Worker) process(ctx context.Context, recordingID string) {
	defer w.release(recordingID)

	err := w.runner.Run(ctx, recordingID)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNothingToTranscribe):
		// normal outcome, already logged by the run
	case errors.Is(err, common.ErrorNotFound):
		w.logger.Warn(ctx, "pipeline run for unknown recording", "recording_id", recordingID)
	default:
		w.logger.Error(ctx, "pipeline run failed", "recording_id", recordingID, "error", err)
	}
}

func (w *Worker) release(recordingID string) {
	w.mu.Lock()
	delete(w.inflight, recordingID)
	w.mu.Unlock()
}
