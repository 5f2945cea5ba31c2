package jobs

import (
	"context"
	"log"
	"time"
)

// Processor is one unit of recurring background work.
type Processor interface {
	Name() string
	Process(ctx context.Context) error
}

// Worker runs a processor on a fixed interval until stopped. Errors are
// logged and the next tick proceeds; a failing processor never kills the
// worker.
type Worker struct {
	processor Processor
	interval  time.Duration
	logger    *log.Logger

	stop chan struct{}
	done chan struct{}
}

func NewWorker(processor Processor, interval time.Duration, logger *log.Logger) *Worker {
	return &Worker{
		processor: processor,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the worker loop in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	w.logger.Printf("worker %s started, interval %s", w.processor.Name(), w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Printf("worker %s stopping: %v", w.processor.Name(), ctx.Err())
			return
		case <-w.stop:
			w.logger.Printf("worker %s stopped", w.processor.Name())
			return
		case <-ticker.C:
			if err := w.processor.Process(ctx); err != nil {
				w.logger.Printf("worker %s: %v", w.processor.Name(), err)
			}
		}
	}
}

// Stop signals the worker and waits for the loop to exit.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}
