// Package workerpool provides a managed goroutine pool with a bounded queue.
// Embedding computation runs here so it never blocks the request-handling
// goroutines.
package workerpool

import (
	"context"
	"fmt"
	"sync"
)

// Task is a unit of work to be executed by the pool.
type Task struct {
	ID      string
	Execute func() error
}

// Result contains the outcome of a task execution.
type Result struct {
	TaskID string
	Error  error
}

// Config defines pool configuration options.
type Config struct {
	Workers   int
	QueueSize int
}

// DefaultConfig returns sensible defaults for pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 64,
	}
}

// Pool manages a fixed number of worker goroutines executing submitted tasks.
type Pool struct {
	workers    int
	taskQueue  chan Task
	wg         sync.WaitGroup
	submitters sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.RWMutex
	running    bool
}

// New creates a worker pool with the specified configuration.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:   cfg.Workers,
		taskQueue: make(chan Task, cfg.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("pool already running")
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.running = true
	return nil
}

// Stop shuts down the pool, waiting for in-flight tasks to complete.
func (p *Pool) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("pool not running")
	}
	p.running = false
	p.mu.Unlock()

	// Cancel first so blocked submitters bail out, then wait for them before
	// closing the queue. Closing with a send still in flight would panic.
	p.cancel()
	p.submitters.Wait()
	close(p.taskQueue)
	p.wg.Wait()
	return nil
}

// Submit adds a task to the pool for execution, blocking while the queue is
// full.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	if !p.running {
		p.mu.RUnlock()
		return fmt.Errorf("pool not running")
	}
	// Registered under the lock, so Stop sees every submitter that passed the
	// running check before waiting and closing the queue.
	p.submitters.Add(1)
	p.mu.RUnlock()
	defer p.submitters.Done()

	select {
	case p.taskQueue <- task:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("pool shutting down")
	}
}

// SubmitAsync submits a task and returns a channel delivering its result.
func (p *Pool) SubmitAsync(task Task) (<-chan Result, error) {
	resultCh := make(chan Result, 1)

	wrapped := Task{
		ID: task.ID,
		Execute: func() error {
			err := task.Execute()
			resultCh <- Result{TaskID: task.ID, Error: err}
			close(resultCh)
			return err
		},
	}

	if err := p.Submit(wrapped); err != nil {
		close(resultCh)
		return nil, err
	}
	return resultCh, nil
}

// QueueDepth returns the current number of queued tasks.
func (p *Pool) QueueDepth() int {
	return len(p.taskQueue)
}

// IsRunning reports whether the pool is active.
func (p *Pool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			_ = task.Execute()
		}
	}
}
