package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

var (
	ErrAlreadyStarted = errors.New("periodic task already started")
	ErrStopped        = errors.New("periodic task stopped")
)

// Func - тело периодической задачи
type Func func(ctx context.Context) error

// Status - снимок состояния задачи
type Status struct {
	Name      string
	StartedAt time.Time
	Interval  time.Duration
	LastRunAt time.Time
	LastError string
	Runs      int
	Running   bool
}

// Option настраивает PeriodicTask
type Option func(*PeriodicTask)

// WithImmediateRun выполняет первый запуск сразу при старте
func WithImmediateRun() Option {
	return func(p *PeriodicTask) {
		p.immediate = true
	}
}

// PeriodicTask запускает Func с фиксированным периодом до явной остановки
// Запуски никогда не пересекаются; Stop идемпотентен и дожидается выхода цикла
type PeriodicTask struct {
	name      string
	interval  time.Duration
	fn        Func
	immediate bool
	log       *logger.Logger

	runMu sync.Mutex

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	cancel      context.CancelFunc
	done        chan struct{}

	mu        sync.RWMutex
	startedAt time.Time
	lastRunAt time.Time
	lastError string
	runs      int
}

// NewPeriodicTask создает задачу
func NewPeriodicTask(name string, interval time.Duration, fn Func, log *logger.Logger, opts ...Option) *PeriodicTask {
	p := &PeriodicTask{
		name:     name,
		interval: interval,
		fn:       fn,
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start запускает цикл задачи в отдельной goroutine
// Цикл завершается при Stop или отмене ctx
func (p *PeriodicTask) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return ErrAlreadyStarted
	}
	if p.interval <= 0 {
		return errors.New("periodic task interval must be positive")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.started = true

	p.mu.Lock()
	p.startedAt = time.Now()
	p.mu.Unlock()

	go p.loop(loopCtx, p.done)

	p.log.Info("Periodic task started", "task", p.name, "interval", p.interval.String())
	return nil
}

// Stop отменяет таймер и дожидается завершения текущего запуска
// Повторные вызовы ничего не делают
func (p *PeriodicTask) Stop() {
	p.lifecycleMu.Lock()
	if p.stopped {
		p.lifecycleMu.Unlock()
		return
	}
	p.stopped = true
	cancel, done := p.cancel, p.done
	p.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	p.log.Info("Periodic task stopped", "task", p.name)
}

// RunOnce выполняет задачу вне расписания, не пересекаясь с плановыми запусками
func (p *PeriodicTask) RunOnce(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	err := p.fn(ctx)
	runAt := time.Now()

	p.mu.Lock()
	p.lastRunAt = runAt
	p.runs++
	if err != nil {
		p.lastError = err.Error()
	} else {
		p.lastError = ""
	}
	p.mu.Unlock()

	if err != nil {
		p.log.Error("Periodic task run failed", err, "task", p.name)
	}

	return err
}

// Snapshot возвращает состояние задачи
func (p *PeriodicTask) Snapshot() Status {
	p.lifecycleMu.Lock()
	running := p.started && !p.stopped
	p.lifecycleMu.Unlock()

	p.mu.RLock()
	defer p.mu.RUnlock()

	return Status{
		Name:      p.name,
		StartedAt: p.startedAt,
		Interval:  p.interval,
		LastRunAt: p.lastRunAt,
		LastError: p.lastError,
		Runs:      p.runs,
		Running:   running,
	}
}

func (p *PeriodicTask) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if p.immediate {
		// ошибка уже сохранена и залогирована в RunOnce
		_ = p.RunOnce(ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			_ = p.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}
