package state

import (
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
)

// Snapshot - согласованная копия состояния только для чтения
type Snapshot struct {
	Window       entity.Window
	Regime       valueobject.Regime
	Directives   []*entity.Directive
	Analysis     *entity.Narrative
	Diagnostic   *entity.Narrative
	Handover     *entity.Narrative
	Explanations map[string]entity.Narrative
	InFlight     map[Slot]int

	Version           uint64
	WindowVersion     uint64
	DirectivesVersion uint64
}

// Snapshot возвращает копию состояния, снятую под одной блокировкой
func (s *ConsoleState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	directives := make([]*entity.Directive, len(s.directives))
	copy(directives, s.directives)

	snap := Snapshot{
		Window:            s.window,
		Regime:            s.regime,
		Directives:        directives,
		Explanations:      make(map[string]entity.Narrative),
		InFlight:          make(map[Slot]int, len(s.inFlight)),
		Version:           s.version,
		WindowVersion:     s.windowVersion,
		DirectivesVersion: s.directivesVersion,
	}

	for key, c := range s.cells {
		if c.narrative == nil {
			continue
		}
		n := *c.narrative

		switch key.slot {
		case SlotAnalysis:
			snap.Analysis = &n
		case SlotDiagnostic:
			snap.Diagnostic = &n
		case SlotHandover:
			snap.Handover = &n
		case SlotExplanation:
			snap.Explanations[key.key] = n
		}
	}

	for slot, n := range s.inFlight {
		snap.InFlight[slot] = n
	}

	return snap
}
