package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Runner executes the work behind one task. Implementations own the task's
// progress log and result; the scheduler only drives lifecycle transitions
// around the call.
type Runner interface {
	Run(ctx context.Context, taskID, text string) error
}

// SchedulerConfig holds configuration for the task scheduler.
type SchedulerConfig struct {
	// WorkerCount bounds how many tasks execute concurrently.
	WorkerCount int

	// QueueSize is the buffer size of the submission queue.
	QueueSize int

	// MaxInputLen is the maximum accepted input length in code points.
	MaxInputLen int
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{WorkerCount: 5, QueueSize: 100, MaxInputLen: 200}
}

// ErrQueueFull is returned when the submission queue cannot accept more work.
var ErrQueueFull = errors.New("任务队列已满，请稍后重试")

type job struct {
	taskID   string
	text     string
	position int
	queuedAt time.Time
}

// Scheduler accepts task submissions and executes them on a fixed worker
// pool. Submission never blocks on execution: the task ID is returned
// immediately and clients poll the store for progress.
type Scheduler struct {
	store  *Store
	runner Runner
	logger *slog.Logger
	config SchedulerConfig

	jobs   chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending int
	active  int
}

// NewScheduler creates a Scheduler. Call Start before submitting.
func NewScheduler(store *Store, runner Runner, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.WorkerCount < 1 {
		config.WorkerCount = DefaultSchedulerConfig().WorkerCount
	}
	if config.QueueSize < 1 {
		config.QueueSize = DefaultSchedulerConfig().QueueSize
	}
	if config.MaxInputLen < 1 {
		config.MaxInputLen = DefaultSchedulerConfig().MaxInputLen
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:  store,
		runner: runner,
		logger: logger,
		config: config,
		jobs:   make(chan job, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker pool.
func (s *Scheduler) Start() {
	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.logger.Info("task scheduler started",
		"worker_count", s.config.WorkerCount,
		"queue_size", s.config.QueueSize)
}

// Stop cancels running tasks and waits for the workers to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("task scheduler stopped")
}

// ValidateInput checks a submission text against the input rules. Returns a
// user-facing message, or "" when the input is acceptable.
func (s *Scheduler) ValidateInput(text string) string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "输入不能为空"
	}
	if utf8.RuneCountInString(cleaned) > s.config.MaxInputLen {
		return fmt.Sprintf("输入过长（最多 %d 字符）", s.config.MaxInputLen)
	}
	return ""
}

// Submit registers a task for the given text and enqueues it. The returned
// QueueInfo tells the client its submission position and the concurrency
// limit.
func (s *Scheduler) Submit(text string) (string, QueueInfo, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	s.pending++
	position := s.pending
	activeNow := s.active
	s.mu.Unlock()

	taskID := s.store.Create(text)
	queue := QueueInfo{Position: position, Limit: s.config.WorkerCount, Active: activeNow}
	s.store.Update(taskID, func(t *Task) { t.Queue = queue })

	select {
	case s.jobs <- job{taskID: taskID, text: text, position: position, queuedAt: time.Now()}:
	default:
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
		s.store.Update(taskID, func(t *Task) {
			t.Status = StatusFailed
			t.Error = ErrQueueFull.Error()
		})
		return "", QueueInfo{}, ErrQueueFull
	}

	return taskID, QueueInfo{Position: position, Limit: s.config.WorkerCount}, nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case j, ok := <-s.jobs:
			if !ok {
				return
			}
			s.execute(j)
		}
	}
}

func (s *Scheduler) execute(j job) {
	wait := time.Since(j.queuedAt)

	s.mu.Lock()
	s.pending--
	s.active++
	activeAtStart := s.active
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	s.store.Update(j.taskID, func(t *Task) {
		t.Queue = QueueInfo{
			Position:      j.position,
			Limit:         s.config.WorkerCount,
			ActiveAtStart: activeAtStart,
			Wait:          fmt.Sprintf("%.2fs", wait.Seconds()),
		}
	})

	// A task must reach a terminal state even when the runner panics.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task crashed", "task_id", j.taskID, "panic", r)
			s.fail(j.taskID, fmt.Sprintf("%v", r))
		}
	}()

	if err := s.runner.Run(s.ctx, j.taskID, j.text); err != nil {
		s.logger.Error("task execution failed", "task_id", j.taskID, "error", err)
		s.fail(j.taskID, err.Error())
	}
}

func (s *Scheduler) fail(taskID, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "任务执行失败"
	}
	s.store.Update(taskID, func(t *Task) {
		t.Status = StatusFailed
		t.Error = message
	})
	s.store.AppendProgress(taskID, "失败", message)
	s.store.AppendProgress(taskID, "完成", "失败")
}
