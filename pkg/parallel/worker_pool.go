package parallel

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu

	panicMu sync.Mutex
	panics  []any
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = fmt.Errorf("worker count exceeds maximum")

// ErrTaskPanicked is returned by Close when at least one task panicked.
var ErrTaskPanicked = fmt.Errorf("worker task panicked")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// DefaultWorkers returns the worker count used when a caller passes 0.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// NewWorkerPool creates a new worker pool with specified number of workers.
// A count of zero or less uses DefaultWorkers.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines
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
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.panicMu.Lock()
					wp.panics = append(wp.panics, r)
					wp.panicMu.Unlock()
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the worker pool
// Returns false if the pool is closed, true if task was submitted
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}

	wp.taskQueue <- task
	return true
}

// Close stops accepting tasks, waits for queued tasks to finish and reports
// whether any of them panicked.
func (wp *WorkerPool) Close() error {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()

	wp.panicMu.Lock()
	defer wp.panicMu.Unlock()
	if len(wp.panics) > 0 {
		return fmt.Errorf("%w: %d task(s), first: %v", ErrTaskPanicked, len(wp.panics), wp.panics[0])
	}
	return nil
}

// Chunk is a contiguous half-open range [Lo, Hi) of work items.
type Chunk struct {
	Index int
	Lo    int
	Hi    int
}

// SplitChunks divides n items into at most parts contiguous chunks of near
// equal size. Chunks are returned in order.
func SplitChunks(n, parts int) []Chunk {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > n {
		parts = n
	}

	chunks := make([]Chunk, 0, parts)
	size := n / parts
	rem := n % parts
	lo := 0
	for i := 0; i < parts; i++ {
		hi := lo + size
		if i < rem {
			hi++
		}
		chunks = append(chunks, Chunk{Index: i, Lo: lo, Hi: hi})
		lo = hi
	}
	return chunks
}

// ForEachChunk runs fn over n items split into one chunk per worker. With a
// single worker fn runs on the calling goroutine. fn must only write state
// owned by its chunk index; callers merge per-chunk results in chunk order so
// that output does not depend on scheduling.
func ForEachChunk(n, workers int, fn func(c Chunk)) error {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	chunks := SplitChunks(n, workers)
	if len(chunks) <= 1 {
		for _, c := range chunks {
			fn(c)
		}
		return nil
	}

	pool, err := NewWorkerPool(len(chunks))
	if err != nil {
		return err
	}
	for _, c := range chunks {
		c := c
		pool.Submit(func() { fn(c) })
	}
	return pool.Close()
}
