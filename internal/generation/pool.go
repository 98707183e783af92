package generation

import (
	"log/slog"
	"sync"
)

// Worker pool defaults.
const (
	// DefaultWorkers is the number of concurrent generation runs.
	DefaultWorkers = 3
	// DefaultQueueSize is the number of pending runs the pool accepts
	// before rejecting submissions.
	DefaultQueueSize = 32
)

// Task is a unit of work executed by the pool.
type Task func()

// WorkerPool executes tasks on a fixed number of goroutines. Submissions
// never block: when the queue is full the task is rejected and the caller
// decides what to do.
type WorkerPool struct {
	tasks chan Task
	wg    sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewWorkerPool creates and starts a pool. Non-positive arguments fall back
// to the defaults.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &WorkerPool{tasks: make(chan Task, queueSize)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	slog.Debug("WorkerPool.NewWorkerPool: pool started", "workers", workers, "queue_size", queueSize)
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
	slog.Debug("WorkerPool.worker: worker exiting", "worker", id)
}

// Submit enqueues a task without blocking. It returns false if the pool has
// been stopped or the queue is full.
func (p *WorkerPool) Submit(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		slog.Warn("WorkerPool.Submit: queue full, rejecting task")
		return false
	}
}

// Stop rejects further submissions, waits for queued tasks to finish, and
// shuts the workers down.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	slog.Debug("WorkerPool.Stop: pool drained and stopped")
}
