package state

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
)

func testWindow(t *testing.T, n int) entity.Window {
	t.Helper()

	readings := make([]entity.Reading, 0, n)
	for i := 0; i < n; i++ {
		readings = append(readings, entity.NewReading(fmt.Sprintf("%d:00", i), entity.ReadingValues{PowerKW: 420}))
	}
	w, err := entity.NewWindow(24, readings...)
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	return w
}

func testDirectives(t *testing.T, ids ...string) []*entity.Directive {
	t.Helper()

	out := make([]*entity.Directive, 0, len(ids))
	for _, id := range ids {
		d, err := entity.NewDirective(id, "title "+id, "desc "+id, "impact", 100, valueobject.UrgencyLow, time.Now())
		if err != nil {
			t.Fatalf("NewDirective() error = %v", err)
		}
		out = append(out, d)
	}
	return out
}

func narrative(kind valueobject.NarrativeKind, text string) entity.Narrative {
	return entity.NewPendingNarrative(kind, "in", "", time.Now()).Complete(text, false, time.Now())
}

func TestConsoleState_UpdateWindow(t *testing.T) {
	s := New(testWindow(t, 3), nil, Options{})

	_, err := s.UpdateWindow(func(w entity.Window, r valueobject.Regime) (entity.Window, error) {
		if r.IsAnomalous() {
			t.Error("initial regime must be normal")
		}
		return w.Append(entity.NewReading("x", entity.ReadingValues{}))
	})
	if err != nil {
		t.Fatalf("UpdateWindow() error = %v", err)
	}
	if s.Window().Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Window().Len())
	}

	failing := errors.New("boom")
	if _, err := s.UpdateWindow(func(w entity.Window, _ valueobject.Regime) (entity.Window, error) {
		return entity.Window{}, failing
	}); !errors.Is(err, failing) {
		t.Fatalf("expected error, got %v", err)
	}
	if s.Window().Len() != 4 {
		t.Error("failed update must keep the window")
	}
}

func TestConsoleState_RemoveDirective(t *testing.T) {
	s := New(testWindow(t, 1), testDirectives(t, "1", "2", "3"), Options{})

	if _, ok := s.RemoveDirective("2"); !ok {
		t.Fatal("expected directive 2 to be removed")
	}
	if _, ok := s.RemoveDirective("2"); ok {
		t.Fatal("second removal must be a no-op")
	}
	if _, ok := s.RemoveDirective("missing"); ok {
		t.Fatal("unknown id must be a no-op")
	}

	ds := s.Directives()
	if len(ds) != 2 || ds[0].ID() != "1" || ds[1].ID() != "3" {
		t.Errorf("unexpected directives order after removal")
	}
}

func TestConsoleState_LastCompletionWins(t *testing.T) {
	s := New(testWindow(t, 1), nil, Options{})

	first := s.Begin(SlotAnalysis, nil)
	second := s.Begin(SlotAnalysis, nil)
	if s.InFlight(SlotAnalysis) != 2 {
		t.Fatalf("InFlight() = %d, want 2", s.InFlight(SlotAnalysis))
	}

	s.Complete(second, narrative(valueobject.NarrativeAnalysis, "newer"))
	s.Complete(first, narrative(valueobject.NarrativeAnalysis, "older"))

	got, ok := s.Result(SlotAnalysis)
	if !ok || got.Text() != "older" {
		t.Errorf("Result() = %q, want last completion", got.Text())
	}
	if s.InFlight(SlotAnalysis) != 0 {
		t.Errorf("InFlight() = %d, want 0", s.InFlight(SlotAnalysis))
	}
}

func TestConsoleState_StrictFreshness(t *testing.T) {
	s := New(testWindow(t, 1), nil, Options{StrictFreshness: true})

	first := s.Begin(SlotAnalysis, nil)
	second := s.Begin(SlotAnalysis, nil)

	if !s.Complete(second, narrative(valueobject.NarrativeAnalysis, "newer")) {
		t.Fatal("newer completion must be applied")
	}
	if s.Complete(first, narrative(valueobject.NarrativeAnalysis, "older")) {
		t.Fatal("older completion must be rejected")
	}

	got, _ := s.Result(SlotAnalysis)
	if got.Text() != "newer" {
		t.Errorf("Result() = %q, want newer", got.Text())
	}
}

func TestConsoleState_ResetDiscardsInFlight(t *testing.T) {
	s := New(testWindow(t, 5), testDirectives(t, "1"), Options{})
	s.SetRegime(valueobject.RegimeAnomalous)

	placeholder := entity.NewPendingNarrative(valueobject.NarrativeDiagnostic, "sym", "pending", time.Now())
	diag := s.Begin(SlotDiagnostic, &placeholder)
	analysis := s.Begin(SlotAnalysis, nil)

	if got, ok := s.Result(SlotDiagnostic); !ok || !got.IsPending() {
		t.Fatal("placeholder must be visible while in flight")
	}

	s.Reset(testWindow(t, 24))

	if s.Regime().IsAnomalous() {
		t.Error("reset must clear the anomaly")
	}
	if s.Window().Len() != 24 {
		t.Errorf("Len() = %d, want 24", s.Window().Len())
	}
	if s.Complete(diag, narrative(valueobject.NarrativeDiagnostic, "late")) {
		t.Error("diagnostic from before reset must be discarded")
	}
	if s.Complete(analysis, narrative(valueobject.NarrativeAnalysis, "late")) {
		t.Error("analysis from before reset must be discarded")
	}
	if _, ok := s.Result(SlotDiagnostic); ok {
		t.Error("diagnostic must stay empty")
	}
	if len(s.Directives()) != 1 {
		t.Error("reset must not touch directives")
	}
}

func TestConsoleState_ResolveClearsDiagnostic(t *testing.T) {
	s := New(testWindow(t, 5), nil, Options{})
	s.SetRegime(valueobject.RegimeAnomalous)

	ticket := s.Begin(SlotDiagnostic, nil)
	s.Complete(ticket, narrative(valueobject.NarrativeDiagnostic, "rca"))

	if prev := s.ResolveRegime(); !prev.IsAnomalous() {
		t.Error("ResolveRegime() must report the previous regime")
	}
	if _, ok := s.Result(SlotDiagnostic); ok {
		t.Error("resolve must clear the diagnostic")
	}
}

func TestConsoleState_CloseDiscardsCompletions(t *testing.T) {
	s := New(testWindow(t, 1), nil, Options{})
	ticket := s.Begin(SlotHandover, nil)

	s.Close()

	if s.Complete(ticket, narrative(valueobject.NarrativeHandover, "doc")) {
		t.Fatal("completion after Close must be discarded")
	}
	if !s.Closed() {
		t.Error("Closed() must report true")
	}
}

func TestConsoleState_Explanations(t *testing.T) {
	s := New(testWindow(t, 1), testDirectives(t, "1", "2"), Options{})

	if _, ok := s.BeginExplanation("missing", nil); ok {
		t.Fatal("explanation for unknown directive must be refused")
	}

	ticket, ok := s.BeginExplanation("1", nil)
	if !ok {
		t.Fatal("expected explanation ticket")
	}
	s.Complete(ticket, narrative(valueobject.NarrativeExplanation, "briefing"))

	if got, ok := s.Explanation("1"); !ok || got.Text() != "briefing" {
		t.Fatalf("Explanation() = %q, %v", got.Text(), ok)
	}

	late, _ := s.BeginExplanation("1", nil)
	s.RemoveDirective("1")

	if _, ok := s.Explanation("1"); ok {
		t.Error("executing a directive must drop its explanation")
	}
	if s.Complete(late, narrative(valueobject.NarrativeExplanation, "late")) {
		t.Error("explanation for executed directive must be discarded")
	}
}

func TestConsoleState_SnapshotIsolation(t *testing.T) {
	s := New(testWindow(t, 2), testDirectives(t, "1"), Options{})
	ticket := s.Begin(SlotAnalysis, nil)
	s.Complete(ticket, narrative(valueobject.NarrativeAnalysis, "trend ok"))

	snap := s.Snapshot()
	s.RemoveDirective("1")
	s.Reset(testWindow(t, 24))

	if len(snap.Directives) != 1 || snap.Window.Len() != 2 {
		t.Error("snapshot must not observe later mutations")
	}
	if snap.Analysis == nil || snap.Analysis.Text() != "trend ok" {
		t.Error("snapshot must carry the analysis result")
	}
	if s.Snapshot().Version <= snap.Version {
		t.Error("version must grow with mutations")
	}
}

func TestConsoleState_ConcurrentAccess(t *testing.T) {
	s := New(testWindow(t, 24), testDirectives(t, "1", "2"), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = s.UpdateWindow(func(w entity.Window, _ valueobject.Regime) (entity.Window, error) {
					return w.Append(entity.NewReading("t", entity.ReadingValues{}))
				})
				ticket := s.Begin(SlotAnalysis, nil)
				s.Complete(ticket, narrative(valueobject.NarrativeAnalysis, "x"))
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if s.Window().Len() != 24 {
		t.Errorf("Len() = %d, want 24", s.Window().Len())
	}
	if s.InFlight(SlotAnalysis) != 0 {
		t.Errorf("InFlight() = %d, want 0", s.InFlight(SlotAnalysis))
	}
}
