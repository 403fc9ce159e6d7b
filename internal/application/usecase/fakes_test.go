package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/service"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

var errNarratorDown = errors.New("narrator unavailable")

type mockNarrator struct {
	mu       sync.Mutex
	analyze  []string
	diagnose []string
	handover []string
	explain  []string
	reply    string
	err      error
}

func (m *mockNarrator) record(dst *[]string, in string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*dst = append(*dst, in)
	return m.reply, m.err
}

func (m *mockNarrator) Analyze(_ context.Context, digest string) (string, error) {
	return m.record(&m.analyze, digest)
}

func (m *mockNarrator) Diagnose(_ context.Context, symptoms string) (string, error) {
	return m.record(&m.diagnose, symptoms)
}

func (m *mockNarrator) Summarize(_ context.Context, summary string) (string, error) {
	return m.record(&m.handover, summary)
}

func (m *mockNarrator) Explain(_ context.Context, description, plantContext string) (string, error) {
	return m.record(&m.explain, description+"|"+plantContext)
}

func (m *mockNarrator) calls(kind string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var src []string
	switch kind {
	case "analyze":
		src = m.analyze
	case "diagnose":
		src = m.diagnose
	case "handover":
		src = m.handover
	case "explain":
		src = m.explain
	}
	return append([]string(nil), src...)
}

type mockMetrics struct {
	mu         sync.Mutex
	ticks      int
	anomaly    bool
	dispatched map[string]int
	failed     map[string]int
	discarded  map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		dispatched: make(map[string]int),
		failed:     make(map[string]int),
		discarded:  make(map[string]int),
	}
}

func (m *mockMetrics) ObserveTick(int, entity.Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
}

func (m *mockMetrics) SetAnomalyActive(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.anomaly = active
}

func (m *mockMetrics) AnalysisDispatched(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched[mode]++
}

func (m *mockMetrics) NarrativeFailed(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[kind]++
}

func (m *mockMetrics) CompletionDiscarded(slot string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded[slot]++
}

type mockNotification struct {
	mu        sync.Mutex
	snapshots []*dto.ConsoleSnapshotDTO
	alerts    []*dto.AlertDTO
}

func (m *mockNotification) Broadcast(snapshot *dto.ConsoleSnapshotDTO) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snapshot)
}

func (m *mockNotification) BroadcastAlert(alert *dto.AlertDTO) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
}

func (m *mockNotification) ClientCount() int { return 0 }

type mockEvents struct {
	mu       sync.Mutex
	subjects []string
}

func (m *mockEvents) PublishEvent(_ context.Context, subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockEvents) Close() error { return nil }

func (m *mockEvents) published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subjects...)
}

// fixture собирает консоль с окном из n штатных показаний
type fixture struct {
	state      *state.ConsoleState
	generator  *service.ReadingGenerator
	aggregator *service.KPIAggregator
	narrator   *mockNarrator
	metrics    *mockMetrics
	notifier   *mockNotification
	events     *mockEvents
	console    *ConsoleNotifier
	snapshots  *GetConsoleSnapshotUseCase
	dispatcher *Dispatcher
	log        *logger.Logger
}

func newFixture(t *testing.T, readings int, opts state.Options) *fixture {
	t.Helper()

	generator, err := service.NewReadingGenerator(valueobject.DefaultGenerationProfile(), nil)
	if err != nil {
		t.Fatalf("NewReadingGenerator() error = %v", err)
	}

	window, err := generator.Seed(entity.DefaultWindowCapacity, readings)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	now := time.Now()
	d1, _ := entity.NewDirective("1", "Dynamic Load Rebalancing", "Shift 40kg/s flow to Compressor #1.", "Reduce energy intensity by 12%", 340, valueobject.UrgencyHigh, now)
	d2, _ := entity.NewDirective("2", "Intercooler Maintenance Flag", "Stage 2 intercooler fouling.", "Avoid 3.5% efficiency degradation", 85, valueobject.UrgencyMedium, now)

	f := &fixture{
		state:      state.New(window, []*entity.Directive{d1, d2}, opts),
		generator:  generator,
		aggregator: service.NewKPIAggregator(0.085),
		narrator:   &mockNarrator{reply: "narrative"},
		metrics:    newMockMetrics(),
		notifier:   &mockNotification{},
		events:     &mockEvents{},
		dispatcher: NewDispatcher(),
		log:        logger.New("error"),
	}
	f.snapshots = NewGetConsoleSnapshotUseCase(f.state, f.aggregator, 83)
	f.console = NewConsoleNotifier(f.snapshots, f.notifier, f.events, f.log)

	return f
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.dispatcher.Wait(ctx); err != nil {
		t.Fatalf("dispatcher did not drain: %v", err)
	}
}

func (f *fixture) analysis() *RunAnalysisUseCase {
	return NewRunAnalysisUseCase(f.state, f.narrator, f.dispatcher, f.metrics, f.console,
		RunAnalysisConfig{PeriodicSample: 10, OnDemandSample: 15, MinReadings: 10}, f.log)
}

func (f *fixture) anomaly() *ManageAnomalyUseCase {
	return NewManageAnomalyUseCase(f.state, f.generator, f.narrator, f.dispatcher, f.metrics, f.console, 24, f.log)
}

func (f *fixture) directives() *ManageDirectivesUseCase {
	return NewManageDirectivesUseCase(f.state, f.narrator, f.dispatcher, f.metrics, f.console, "Plant A-4", f.log)
}

func (f *fixture) ingest() *IngestReadingUseCase {
	return NewIngestReadingUseCase(f.state, f.generator, f.aggregator, f.metrics, nil, f.console, f.log)
}
