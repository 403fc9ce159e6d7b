package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/application/usecase"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubNarrator struct {
	mu      sync.Mutex
	digests []string
	gate    chan struct{}
}

func (s *stubNarrator) wait(ctx context.Context) {
	if s.gate == nil {
		return
	}
	select {
	case <-s.gate:
	case <-ctx.Done():
	}
}

func (s *stubNarrator) Analyze(ctx context.Context, digest string) (string, error) {
	s.wait(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digests = append(s.digests, digest)
	return "trend stable", nil
}

func (s *stubNarrator) Diagnose(ctx context.Context, _ string) (string, error) {
	s.wait(ctx)
	return "intercooler fouling", nil
}

func (s *stubNarrator) Summarize(ctx context.Context, _ string) (string, error) {
	s.wait(ctx)
	return "handover", nil
}

func (s *stubNarrator) Explain(ctx context.Context, _, _ string) (string, error) {
	s.wait(ctx)
	return "briefing", nil
}

func (s *stubNarrator) analyzed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.digests)
}

func testConfig() Config {
	return Config{
		TickInterval:     5 * time.Millisecond,
		AnalysisInterval: time.Hour,
		WindowCapacity:   24,
		UnitEnergyCost:   0.085,
		CurrencyRate:     83,
		Analysis:         usecase.RunAnalysisConfig{PeriodicSample: 10, OnDemandSample: 15, MinReadings: 10},
	}
}

func newTestEngine(t *testing.T, narrator *stubNarrator) *Engine {
	t.Helper()

	d, _ := entity.NewDirective("1", "Dynamic Load Rebalancing", "desc", "impact", 340, valueobject.UrgencyHigh, time.Now())
	e, err := New(testConfig(), valueobject.DefaultGenerationProfile(), []*entity.Directive{d},
		Collaborators{Narrator: narrator}, logger.New("error"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestEngine_StartRunsBothTasks(t *testing.T) {
	narrator := &stubNarrator{}
	e := newTestEngine(t, narrator)

	if got := e.Snapshots().Execute(context.Background()).Telemetry; len(got) != 24 {
		t.Fatalf("seeded window len = %d, want 24", len(got))
	}

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// анализ запускается сразу при старте
	waitFor(t, func() bool { return narrator.analyzed() == 1 })
	waitFor(t, func() bool { return e.Status().Ingestion.Runs >= 3 })

	snap := e.Snapshots().Execute(context.Background())
	if len(snap.Telemetry) != 24 {
		t.Errorf("window len = %d, want 24", len(snap.Telemetry))
	}
	if snap.Telemetry[0].Timestamp == "0:00" {
		t.Error("oldest reading must have been evicted")
	}

	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if st := e.Status(); st.Ingestion.Running || st.Analysis.Running {
		t.Error("tasks must be stopped after Close")
	}
}

func TestEngine_CloseIdempotent(t *testing.T) {
	e := newTestEngine(t, &stubNarrator{})

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestEngine_LateResultsDiscardedAfterClose(t *testing.T) {
	narrator := &stubNarrator{gate: make(chan struct{})}
	e := newTestEngine(t, narrator)

	if !e.TriggerDeepAnalysis() {
		t.Fatal("deep analysis must dispatch")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := e.Close(ctx); err == nil {
		t.Fatal("Close() must report in-flight calls")
	}

	close(narrator.gate)
	waitFor(t, func() bool { return e.state.InFlight(state.SlotAnalysis) == 0 })

	if _, ok := e.state.Result(state.SlotAnalysis); ok {
		t.Fatal("result completed after Close must be discarded")
	}
}

func TestEngine_RequiresNarrator(t *testing.T) {
	if _, err := New(testConfig(), valueobject.DefaultGenerationProfile(), nil, Collaborators{}, logger.New("error")); err == nil {
		t.Fatal("expected error without narrator")
	}
}
