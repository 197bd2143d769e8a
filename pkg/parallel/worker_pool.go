package parallel

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// WorkerPool runs error-returning tasks on a fixed set of goroutines.
// The first task error (or recovered panic) is kept and returned by Wait;
// tasks submitted after a failure are skipped.
type WorkerPool struct {
	workers   int
	taskQueue chan func() error
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu

	errOnce sync.Once
	err     error
	failed  chan struct{}
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = errors.New("worker count exceeds maximum")

// ErrTaskPanicked wraps a panic recovered from a task.
var ErrTaskPanicked = errors.New("task panicked")

// ErrPoolClosed is returned by Submit after Close or Wait.
var ErrPoolClosed = errors.New("worker pool closed")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// NewWorkerPool creates a new worker pool with specified number of workers.
// Returns an error if the worker count exceeds MaxWorkers.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func() error, workers*2),
		failed:    make(chan struct{}),
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		select {
		case <-wp.failed:
			continue
		default:
		}
		if err := wp.run(task); err != nil {
			wp.fail(err)
		}
	}
}

func (wp *WorkerPool) run(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return task()
}

func (wp *WorkerPool) fail(err error) {
	wp.errOnce.Do(func() {
		wp.err = err
		close(wp.failed)
	})
}

// Submit queues a task. It returns ErrPoolClosed once the pool is closed.
func (wp *WorkerPool) Submit(task func() error) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	wp.taskQueue <- task
	return nil
}

// Close stops accepting tasks and waits for queued ones to drain.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Wait closes the pool, waits for all tasks and returns the first task error.
func (wp *WorkerPool) Wait() error {
	wp.Close()
	return wp.err
}
