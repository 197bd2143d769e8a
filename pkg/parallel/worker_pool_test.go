package parallel

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newPool(t *testing.T, workers int) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d) failed: %v", workers, err)
	}
	return pool
}

// TestWorkerPoolBasicOperations tests basic worker pool functionality
func TestWorkerPoolBasicOperations(t *testing.T) {
	pool := newPool(t, 4)

	executed := false
	if err := pool.Submit(func() error {
		executed = true
		return nil
	}); err != nil {
		t.Errorf("Task submission failed: %v", err)
	}

	if err := pool.Wait(); err != nil {
		t.Errorf("Wait returned %v", err)
	}
	if !executed {
		t.Error("Task was not executed")
	}
}

func TestWorkerPoolWorkerCount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{1, 1}, {10, 10}, {0, 1}, {-5, 1},
	}
	for _, tt := range tests {
		pool := newPool(t, tt.in)
		if pool.Workers() != tt.want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", tt.in, pool.Workers(), tt.want)
		}
		pool.Close()
	}

	if _, err := NewWorkerPool(math.MaxInt); !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("Expected ErrTooManyWorkers, got %v", err)
	}
}

// TestWorkerPoolConcurrentSubmissions tests concurrent task submissions
func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool := newPool(t, 10)

	numTasks := 100
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() error {
				atomic.AddInt64(&counter, 1)
				return nil
			})
		}()
	}

	wg.Wait()
	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait returned %v", err)
	}

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

// TestWorkerPoolCloseRace validates that closing the pool while submitting
// tasks doesn't panic
func TestWorkerPoolCloseRace(t *testing.T) {
	for iteration := 0; iteration < 50; iteration++ {
		pool := newPool(t, 4)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					pool.Submit(func() error {
						time.Sleep(time.Millisecond)
						return nil
					})
				}
			}()
		}

		time.Sleep(2 * time.Millisecond)
		pool.Close()
		wg.Wait()
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := newPool(t, 4)
	pool.Close()

	err := pool.Submit(func() error {
		t.Error("This task should never execute")
		return nil
	})
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit after close = %v, want ErrPoolClosed", err)
	}
}

func TestWorkerPoolMultipleClose(t *testing.T) {
	pool := newPool(t, 4)
	for i := 0; i < 10; i++ {
		pool.Submit(func() error { return nil })
	}

	pool.Close()
	pool.Close()
	if err := pool.Wait(); err != nil {
		t.Errorf("Wait after Close = %v", err)
	}
}

func TestWorkerPoolFirstErrorWins(t *testing.T) {
	pool := newPool(t, 1)
	errFirst := errors.New("first")

	var ran int64
	pool.Submit(func() error { return errFirst })
	for i := 0; i < 20; i++ {
		pool.Submit(func() error {
			atomic.AddInt64(&ran, 1)
			return errors.New("later")
		})
	}

	if err := pool.Wait(); !errors.Is(err, errFirst) {
		t.Errorf("Wait = %v, want first error", err)
	}
	if ran != 0 {
		t.Errorf("Tasks queued after a failure should be skipped on a single worker, %d ran", ran)
	}
}

func TestWorkerPoolRecoversPanic(t *testing.T) {
	pool := newPool(t, 4)

	pool.Submit(func() error {
		panic("shard exploded")
	})

	err := pool.Wait()
	if !errors.Is(err, ErrTaskPanicked) {
		t.Fatalf("Wait = %v, want ErrTaskPanicked", err)
	}
}

// BenchmarkWorkerPoolThroughput benchmarks worker pool throughput
func BenchmarkWorkerPoolThroughput(b *testing.B) {
	pool, _ := NewWorkerPool(10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() error { return nil })
	}

	pool.Wait()
}
