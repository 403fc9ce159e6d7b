package state

import (
	"sync"

	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
)

// Slot определяет ячейку результата внешнего аналитика
type Slot string

const (
	SlotAnalysis    Slot = "analysis"
	SlotDiagnostic  Slot = "diagnostic"
	SlotHandover    Slot = "handover"
	SlotExplanation Slot = "explanation"
)

// Ticket связывает ответ внешнего вызова с ячейкой, в которую он пишется
// epoch меняется при очистке ячейки, seq растет с каждым запросом
type Ticket struct {
	Slot  Slot
	Key   string
	epoch uint64
	seq   uint64
}

// Seq возвращает порядковый номер запроса в ячейке
func (t Ticket) Seq() uint64 {
	return t.seq
}

type cellKey struct {
	slot Slot
	key  string
}

type resultCell struct {
	narrative *entity.Narrative
	epoch     uint64
	seq       uint64
	applied   uint64
}

// Options настраивает контейнер состояния
type Options struct {
	// StrictFreshness отбрасывает ответ, если уже применен более новый запрос
	StrictFreshness bool
}

// ConsoleState - единственный владелец изменяемого состояния консоли
// Все изменения выполняются под мьютексом как замена значения целиком
type ConsoleState struct {
	mu sync.RWMutex

	window     entity.Window
	regime     valueobject.Regime
	directives []*entity.Directive
	cells      map[cellKey]*resultCell
	inFlight   map[Slot]int

	strictFreshness bool
	closed          bool

	version           uint64
	windowVersion     uint64
	directivesVersion uint64
}

// New создает контейнер с начальным окном и набором директив
func New(window entity.Window, directives []*entity.Directive, opts Options) *ConsoleState {
	copied := make([]*entity.Directive, len(directives))
	copy(copied, directives)

	return &ConsoleState{
		window:          window,
		directives:      copied,
		cells:           make(map[cellKey]*resultCell),
		inFlight:        make(map[Slot]int),
		strictFreshness: opts.StrictFreshness,
	}
}

// Window возвращает текущее окно
func (s *ConsoleState) Window() entity.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// UpdateWindow атомарно вычисляет и сохраняет новое окно
// fn получает текущее окно и режим; при ошибке состояние не меняется
func (s *ConsoleState) UpdateWindow(fn func(entity.Window, valueobject.Regime) (entity.Window, error)) (entity.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.window, s.regime)
	if err != nil {
		return s.window, err
	}

	s.window = next
	s.windowVersion++
	s.version++
	return next, nil
}

// Regime возвращает текущий режим
func (s *ConsoleState) Regime() valueobject.Regime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regime
}

// SetRegime устанавливает режим, возвращает предыдущий
func (s *ConsoleState) SetRegime(regime valueobject.Regime) valueobject.Regime {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.regime
	s.regime = regime
	s.version++
	return prev
}

// ResolveRegime переводит режим в штатный и очищает диагностику
func (s *ConsoleState) ResolveRegime() valueobject.Regime {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.regime
	s.regime = valueobject.RegimeNormal
	s.clearLocked(cellKey{slot: SlotDiagnostic})
	s.version++
	return prev
}

// Reset заменяет окно, сбрасывает режим и очищает анализ, диагностику и сводку смены
// Директивы и пояснения к ним не затрагиваются
func (s *ConsoleState) Reset(window entity.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window = window
	s.regime = valueobject.RegimeNormal
	s.clearLocked(cellKey{slot: SlotAnalysis})
	s.clearLocked(cellKey{slot: SlotDiagnostic})
	s.clearLocked(cellKey{slot: SlotHandover})
	s.windowVersion++
	s.version++
}

// Directives возвращает копию упорядоченного набора директив
func (s *ConsoleState) Directives() []*entity.Directive {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Directive, len(s.directives))
	copy(out, s.directives)
	return out
}

// FindDirective ищет директиву по идентификатору
func (s *ConsoleState) FindDirective(id string) (*entity.Directive, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.directives {
		if d.ID() == id {
			return d, true
		}
	}
	return nil, false
}

// RemoveDirective удаляет директиву и ее пояснение
// Возвращает удаленную директиву или false, если такой нет
func (s *ConsoleState) RemoveDirective(id string) (*entity.Directive, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.directives {
		if d.ID() != id {
			continue
		}

		next := make([]*entity.Directive, 0, len(s.directives)-1)
		next = append(next, s.directives[:i]...)
		next = append(next, s.directives[i+1:]...)
		s.directives = next

		delete(s.cells, cellKey{slot: SlotExplanation, key: id})
		s.directivesVersion++
		s.version++
		return d, true
	}

	return nil, false
}

// Begin регистрирует исходящий запрос к ячейке
// Если placeholder не nil, он сразу становится содержимым ячейки
func (s *ConsoleState) Begin(slot Slot, placeholder *entity.Narrative) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.beginLocked(cellKey{slot: slot}, placeholder)
}

// BeginExplanation регистрирует запрос пояснения для существующей директивы
func (s *ConsoleState) BeginExplanation(directiveID string, placeholder *entity.Narrative) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.directives {
		if d.ID() == directiveID {
			return s.beginLocked(cellKey{slot: SlotExplanation, key: directiveID}, placeholder), true
		}
	}
	return Ticket{}, false
}

func (s *ConsoleState) beginLocked(key cellKey, placeholder *entity.Narrative) Ticket {
	c := s.cellLocked(key)
	c.seq++

	if placeholder != nil {
		p := *placeholder
		c.narrative = &p
		s.version++
	}

	s.inFlight[key.slot]++

	return Ticket{Slot: key.slot, Key: key.key, epoch: c.epoch, seq: c.seq}
}

// Complete записывает результат запроса, если он все еще актуален
// Ответ отбрасывается после Close, после очистки ячейки или
// (при StrictFreshness) если уже применен ответ на более новый запрос
func (s *ConsoleState) Complete(t Ticket, n entity.Narrative) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight[t.Slot] > 0 {
		s.inFlight[t.Slot]--
	}

	if s.closed {
		return false
	}

	c, ok := s.cells[cellKey{slot: t.Slot, key: t.Key}]
	if !ok || c.epoch != t.epoch {
		return false
	}
	if s.strictFreshness && t.seq < c.applied {
		return false
	}

	c.narrative = &n
	if t.seq > c.applied {
		c.applied = t.seq
	}
	s.version++
	return true
}

// Result возвращает содержимое ячейки
func (s *ConsoleState) Result(slot Slot) (entity.Narrative, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cells[cellKey{slot: slot}]
	if !ok || c.narrative == nil {
		return entity.Narrative{}, false
	}
	return *c.narrative, true
}

// Explanation возвращает пояснение к директиве
func (s *ConsoleState) Explanation(directiveID string) (entity.Narrative, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cells[cellKey{slot: SlotExplanation, key: directiveID}]
	if !ok || c.narrative == nil {
		return entity.Narrative{}, false
	}
	return *c.narrative, true
}

// InFlight возвращает количество незавершенных запросов по ячейке
func (s *ConsoleState) InFlight(slot Slot) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight[slot]
}

// Close запрещает запись результатов, пришедших после остановки
func (s *ConsoleState) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed сообщает, остановлен ли контейнер
func (s *ConsoleState) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *ConsoleState) cellLocked(key cellKey) *resultCell {
	c, ok := s.cells[key]
	if !ok {
		c = &resultCell{}
		s.cells[key] = c
	}
	return c
}

func (s *ConsoleState) clearLocked(key cellKey) {
	c := s.cellLocked(key)
	c.narrative = nil
	c.epoch++
	c.applied = 0
}
