package usecase

import (
	"context"
	"sync"
)

// Dispatcher запускает внешние вызовы вне потока, изменяющего состояние
// Вызовы не отменяются при остановке: их результаты отбрасывает контейнер состояния
type Dispatcher struct {
	wg sync.WaitGroup
}

// NewDispatcher создает новый Dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Go запускает fn в отдельной goroutine с контекстом, не связанным с вызывающим
func (d *Dispatcher) Go(fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn(context.Background())
	}()
}

// Wait ожидает завершения всех запущенных вызовов или отмены ctx
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
