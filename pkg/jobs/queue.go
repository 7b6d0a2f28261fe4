package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of background work.
type Task struct {
	ID      string
	Kind    string
	Payload interface{}
	attempt int
}

// Runner executes a task.
type Runner func(context.Context, Task) error

// Options tunes the worker pool.
type Options struct {
	Workers    int
	Buffer     int
	MaxRetries int
	RetryDelay time.Duration
}

// Queue runs tasks on a fixed pool of goroutines. Failed tasks are
// retried a bounded number of times and then dropped with a log entry.
type Queue struct {
	name   string
	run    Runner
	opts   Options
	logger *zap.Logger

	tasks  chan Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewQueue builds a queue for the given runner.
func NewQueue(name string, run Runner, opts Options, logger *zap.Logger) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = opts.Workers * 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		name:   name,
		run:    run,
		opts:   opts,
		logger: logger,
		tasks:  make(chan Task, opts.Buffer),
	}
}

// Start launches the workers. Subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.once.Do(func() {
		q.ctx, q.cancel = context.WithCancel(ctx)
		for i := 0; i < q.opts.Workers; i++ {
			q.wg.Add(1)
			go q.worker()
		}
		q.logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.opts.Workers))
	})
}

// Stop cancels the workers and waits for them to drain.
func (q *Queue) Stop() {
	if q.cancel == nil {
		return
	}
	q.cancel()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.String("queue", q.name))
}

// Submit enqueues a task, failing fast when the queue is stopped or full.
func (q *Queue) Submit(task Task) error {
	if q.ctx == nil {
		return fmt.Errorf("queue %s not started", q.name)
	}
	select {
	case <-q.ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, q.ctx.Err())
	case q.tasks <- task:
		return nil
	default:
		return fmt.Errorf("queue %s full", q.name)
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			if err := q.run(q.ctx, task); err != nil {
				q.retry(task, err)
			}
		}
	}
}

func (q *Queue) retry(task Task, err error) {
	task.attempt++
	if task.attempt > q.opts.MaxRetries {
		q.logger.Error("task dropped after retries",
			zap.String("queue", q.name), zap.String("task_id", task.ID),
			zap.String("kind", task.Kind), zap.Error(err))
		return
	}
	q.logger.Warn("task failed, retrying",
		zap.String("queue", q.name), zap.String("task_id", task.ID),
		zap.Int("attempt", task.attempt), zap.Error(err))
	go func(t Task) {
		timer := time.NewTimer(q.opts.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			select {
			case q.tasks <- t:
			default:
				q.logger.Error("failed to requeue task", zap.String("queue", q.name), zap.String("task_id", t.ID))
			}
		}
	}(task)
}
