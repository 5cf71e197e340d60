package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Dispatcher runs a fixed worker pool over an in-process job channel. Jobs
// are fire-and-forget: handler errors are logged, never retried. The handler
// is responsible for leaving any durable state it touches in a terminal
// state before returning.
type Dispatcher[T any, D any] struct {
	jobs       chan T
	handler    func(ctx context.Context, job T, dependencies D) error
	numWorkers int

	startOnce sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher[T any, D any](
	numWorkers int,
	buffer int,
	handler func(ctx context.Context, job T, dependencies D) error,
) *Dispatcher[T, D] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if buffer < numWorkers {
		buffer = numWorkers
	}
	return &Dispatcher[T, D]{
		jobs:       make(chan T, buffer),
		handler:    handler,
		numWorkers: numWorkers,
	}
}

// Start launches the worker pool. Workers drain until ctx is cancelled.
func (d *Dispatcher[T, D]) Start(ctx context.Context, dependencies D) {
	d.startOnce.Do(func() {
		for i := 1; i <= d.numWorkers; i++ {
			d.wg.Add(1)
			go func(workerId int) {
				defer d.wg.Done()
				for {
					select {
					case job, ok := <-d.jobs:
						if !ok {
							return
						}
						if err := d.handler(ctx, job, dependencies); err != nil {
							zerolog.Ctx(ctx).Error().Err(err).Int("worker", workerId).Msg("failed to handle job")
						}
					case <-ctx.Done():
						return
					}
				}
			}(i)
		}
	})
}

// Enqueue hands a job to the pool. It blocks only when the buffer is full.
func (d *Dispatcher[T, D]) Enqueue(job T) {
	d.jobs <- job
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (d *Dispatcher[T, D]) Stop() {
	close(d.jobs)
	d.wg.Wait()
}
