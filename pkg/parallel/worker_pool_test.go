package parallel

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// TestWorkerPoolBasicOperations tests basic worker pool functionality
func TestWorkerPoolBasicOperations(t *testing.T) {
	pool, err := NewWorkerPool(4)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}

	var executed atomic.Bool
	if !pool.Submit(func() { executed.Store(true) }) {
		t.Error("Task submission failed")
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !executed.Load() {
		t.Error("Task was not executed")
	}
}

// TestWorkerPoolConcurrentSubmissions tests concurrent task submissions
func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool, err := NewWorkerPool(10)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}

	numTasks := 100
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() {
				atomic.AddInt64(&counter, 1)
			})
		}()
	}

	wg.Wait()
	pool.Close()

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool, _ := NewWorkerPool(2)
	pool.Close()

	if pool.Submit(func() {}) {
		t.Error("Submit should fail after Close")
	}
	// Close is idempotent
	if err := pool.Close(); err != nil {
		t.Errorf("Second Close returned error: %v", err)
	}
}

func TestWorkerPoolPanicReported(t *testing.T) {
	pool, _ := NewWorkerPool(2)
	pool.Submit(func() { panic("boom") })

	var ran atomic.Bool
	pool.Submit(func() { ran.Store(true) })

	err := pool.Close()
	if !errors.Is(err, ErrTaskPanicked) {
		t.Fatalf("Expected ErrTaskPanicked, got %v", err)
	}
	if !ran.Load() {
		t.Error("Worker stopped processing after a panic")
	}
}

func TestNewWorkerPoolTooMany(t *testing.T) {
	_, err := NewWorkerPool(MaxWorkers + 1)
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("Expected ErrTooManyWorkers, got %v", err)
	}
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
		sizes []int
	}{
		{"empty", 0, 4, nil},
		{"even", 8, 4, []int{2, 2, 2, 2}},
		{"remainder", 10, 4, []int{3, 3, 2, 2}},
		{"more parts than items", 3, 8, []int{1, 1, 1}},
		{"zero parts", 5, 0, []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitChunks(tt.n, tt.parts)
			if len(chunks) != len(tt.sizes) {
				t.Fatalf("Expected %d chunks, got %d", len(tt.sizes), len(chunks))
			}
			next := 0
			for i, c := range chunks {
				if c.Lo != next {
					t.Errorf("Chunk %d starts at %d, want %d", i, c.Lo, next)
				}
				if c.Hi-c.Lo != tt.sizes[i] {
					t.Errorf("Chunk %d size %d, want %d", i, c.Hi-c.Lo, tt.sizes[i])
				}
				if c.Index != i {
					t.Errorf("Chunk %d has index %d", i, c.Index)
				}
				next = c.Hi
			}
			if next != tt.n {
				t.Errorf("Chunks cover %d items, want %d", next, tt.n)
			}
		})
	}
}

func TestForEachChunkCoversAllItems(t *testing.T) {
	for _, workers := range []int{1, 3, 16} {
		n := 50
		seen := make([]int32, n)
		err := ForEachChunk(n, workers, func(c Chunk) {
			for i := c.Lo; i < c.Hi; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		if err != nil {
			t.Fatalf("ForEachChunk(workers=%d) failed: %v", workers, err)
		}
		for i, count := range seen {
			if count != 1 {
				t.Errorf("workers=%d: item %d visited %d times", workers, i, count)
			}
		}
	}
}
