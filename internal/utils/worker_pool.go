package utils

import (
	"sync"

	"github.com/rs/zerolog"
)

// WorkerPool runs submitted tasks on a fixed number of goroutines.
// A panicking task is logged and does not take its worker down.
type WorkerPool struct {
	workers   int
	jobQueue  chan func()
	waitGroup sync.WaitGroup
	logger    zerolog.Logger
}

// NewWorkerPool starts a pool with the given number of workers (at least one).
// The queue holds as many pending tasks as there are workers; Submit blocks beyond that.
func NewWorkerPool(workers int, logger zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	pool := &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers),
		logger:   logger,
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.waitGroup.Done()
	for task := range wp.jobQueue {
		wp.run(task)
	}
}

func (wp *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error().Interface("panic", r).Msg("Worker task panicked")
		}
	}()
	task()
}

// Submit queues a task. It must not be called after Shutdown.
func (wp *WorkerPool) Submit(task func()) {
	wp.jobQueue <- task
}

// Shutdown stops accepting work and waits for queued tasks to finish.
func (wp *WorkerPool) Shutdown() {
	close(wp.jobQueue)
	wp.waitGroup.Wait()
}
