package entity

import (
	"errors"
	"fmt"
)

// DefaultWindowCapacity - емкость окна по умолчанию
const DefaultWindowCapacity = 24

var ErrWindowNotInitialized = errors.New("window is not initialized")

// Window представляет скользящее окно последних показаний (Value Object)
// Хронологический порядок, длина не превышает емкость.
// Любая модификация возвращает новое окно, исходное не меняется
type Window struct {
	readings []Reading
	capacity int
}

// NewWindow создает окно заданной емкости из начальных показаний
// Если показаний больше емкости, остаются последние capacity штук
func NewWindow(capacity int, readings ...Reading) (Window, error) {
	if capacity <= 0 {
		return Window{}, fmt.Errorf("window capacity must be positive, got %d", capacity)
	}

	if len(readings) > capacity {
		readings = readings[len(readings)-capacity:]
	}

	copied := make([]Reading, len(readings))
	copy(copied, readings)

	return Window{readings: copied, capacity: capacity}, nil
}

// Append добавляет показание в конец окна, вытесняя самое старое при заполнении
// На пустом окне возвращает ErrWindowNotInitialized и исходное окно
func (w Window) Append(r Reading) (Window, error) {
	if len(w.readings) == 0 {
		return w, ErrWindowNotInitialized
	}

	start := 0
	if len(w.readings) >= w.capacity {
		start = len(w.readings) - w.capacity + 1
	}

	next := make([]Reading, 0, w.capacity)
	next = append(next, w.readings[start:]...)
	next = append(next, r)

	return Window{readings: next, capacity: w.capacity}, nil
}

// Len возвращает текущее количество показаний
func (w Window) Len() int {
	return len(w.readings)
}

// Capacity возвращает емкость окна
func (w Window) Capacity() int {
	return w.capacity
}

// IsEmpty проверяет, пусто ли окно
func (w Window) IsEmpty() bool {
	return len(w.readings) == 0
}

// Latest возвращает самое свежее показание
func (w Window) Latest() (Reading, bool) {
	if len(w.readings) == 0 {
		return Reading{}, false
	}
	return w.readings[len(w.readings)-1], true
}

// Tail возвращает копию последних k показаний (или всех, если их меньше)
func (w Window) Tail(k int) []Reading {
	if k <= 0 {
		return []Reading{}
	}
	if k > len(w.readings) {
		k = len(w.readings)
	}

	tail := make([]Reading, k)
	copy(tail, w.readings[len(w.readings)-k:])
	return tail
}

// Readings возвращает копию всех показаний
func (w Window) Readings() []Reading {
	return w.Tail(len(w.readings))
}
