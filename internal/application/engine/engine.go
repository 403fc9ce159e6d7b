package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/application/scheduler"
	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/application/usecase"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/service"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// Config задает параметры ядра консоли
type Config struct {
	TickInterval      time.Duration
	AnalysisInterval  time.Duration
	WindowCapacity    int
	UnitEnergyCost    float64
	CurrencyRate      float64
	Analysis          usecase.RunAnalysisConfig
	StrictFreshness   bool
	PlantContext      string
	HandoverKeyPrefix string
}

// Collaborators - внешние зависимости ядра
// Все, кроме Narrator, могут быть nil
type Collaborators struct {
	Narrator         port.Narrator
	Notifications    port.NotificationService
	Events           port.EventPublisher
	MetricsPublisher port.MetricsPublisher
	Archive          port.ReportArchive
	Metrics          port.ConsoleMetrics
}

// Status - состояние фоновых задач ядра
type Status struct {
	Ingestion scheduler.Status
	Analysis  scheduler.Status
	Cycles    dto.AnalysisStatusDTO
}

// Engine владеет контейнером состояния и запускает обе периодические задачи
// Все операции консоли проходят через use cases, созданные здесь
type Engine struct {
	state      *state.ConsoleState
	dispatcher *usecase.Dispatcher

	snapshots  *usecase.GetConsoleSnapshotUseCase
	ingest     *usecase.IngestReadingUseCase
	analysis   *usecase.RunAnalysisUseCase
	anomaly    *usecase.ManageAnomalyUseCase
	directives *usecase.ManageDirectivesUseCase
	handover   *usecase.GenerateHandoverUseCase

	ingestionTask *scheduler.PeriodicTask
	analysisTask  *scheduler.PeriodicTask

	log       *logger.Logger
	closeOnce sync.Once
}

// New собирает ядро: засевает окно штатными показаниями и создает use cases
func New(
	cfg Config,
	profile valueobject.GenerationProfile,
	directives []*entity.Directive,
	c Collaborators,
	log *logger.Logger,
) (*Engine, error) {
	if c.Narrator == nil {
		return nil, errors.New("narrator is required")
	}
	if cfg.TickInterval <= 0 || cfg.AnalysisInterval <= 0 {
		return nil, errors.New("tick and analysis intervals must be positive")
	}
	if cfg.WindowCapacity <= 0 {
		cfg.WindowCapacity = entity.DefaultWindowCapacity
	}

	// 1. Domain Services
	generator, err := service.NewReadingGenerator(profile, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create reading generator: %w", err)
	}
	aggregator := service.NewKPIAggregator(cfg.UnitEnergyCost)

	// 2. Начальное окно
	window, err := generator.Seed(cfg.WindowCapacity, cfg.WindowCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to seed window: %w", err)
	}

	st := state.New(window, directives, state.Options{StrictFreshness: cfg.StrictFreshness})
	dispatcher := usecase.NewDispatcher()

	// 3. Use Cases
	snapshots := usecase.NewGetConsoleSnapshotUseCase(st, aggregator, cfg.CurrencyRate)
	notifier := usecase.NewConsoleNotifier(snapshots, c.Notifications, c.Events, log)

	e := &Engine{
		state:      st,
		dispatcher: dispatcher,
		snapshots:  snapshots,
		ingest: usecase.NewIngestReadingUseCase(
			st, generator, aggregator, c.Metrics, c.MetricsPublisher, notifier, log,
		),
		analysis: usecase.NewRunAnalysisUseCase(
			st, c.Narrator, dispatcher, c.Metrics, notifier, cfg.Analysis, log,
		),
		anomaly: usecase.NewManageAnomalyUseCase(
			st, generator, c.Narrator, dispatcher, c.Metrics, notifier, cfg.WindowCapacity, log,
		),
		directives: usecase.NewManageDirectivesUseCase(
			st, c.Narrator, dispatcher, c.Metrics, notifier, cfg.PlantContext, log,
		),
		handover: usecase.NewGenerateHandoverUseCase(
			st, aggregator, c.Narrator, c.Archive, dispatcher, c.Metrics, notifier,
			usecase.GenerateHandoverConfig{KeyPrefix: cfg.HandoverKeyPrefix}, log,
		),
		log: log,
	}

	// 4. Периодические задачи
	e.ingestionTask = scheduler.NewPeriodicTask("ingestion", cfg.TickInterval, e.ingest.Execute, log)
	e.analysisTask = scheduler.NewPeriodicTask("analysis", cfg.AnalysisInterval, func(context.Context) error {
		e.analysis.Trigger(valueobject.AnalysisPeriodic)
		return nil
	}, log, scheduler.WithImmediateRun())

	return e, nil
}

// Start запускает прием показаний и периодический анализ
func (e *Engine) Start(ctx context.Context) error {
	if err := e.ingestionTask.Start(ctx); err != nil {
		return fmt.Errorf("failed to start ingestion: %w", err)
	}
	if err := e.analysisTask.Start(ctx); err != nil {
		e.ingestionTask.Stop()
		return fmt.Errorf("failed to start analysis: %w", err)
	}

	e.log.Info("Console engine started", "readings", e.state.Window().Len())
	return nil
}

// Close останавливает таймеры и запрещает запись поздних результатов
// Незавершенные внешние вызовы не отменяются; ctx ограничивает ожидание их завершения
func (e *Engine) Close(ctx context.Context) error {
	var err error
	e.closeOnce.Do(func() {
		e.ingestionTask.Stop()
		e.analysisTask.Stop()
		e.state.Close()

		if waitErr := e.dispatcher.Wait(ctx); waitErr != nil {
			err = fmt.Errorf("in-flight narrator calls still running: %w", waitErr)
			e.log.Warn("Engine closed with in-flight calls", "error", waitErr.Error())
			return
		}
		e.log.Info("Console engine stopped")
	})
	return err
}

// TriggerDeepAnalysis запускает анализ по запросу оператора
func (e *Engine) TriggerDeepAnalysis() bool {
	return e.analysis.Trigger(valueobject.AnalysisOnDemand)
}

// Status возвращает состояние фоновых задач
func (e *Engine) Status() Status {
	return Status{
		Ingestion: e.ingestionTask.Snapshot(),
		Analysis:  e.analysisTask.Snapshot(),
		Cycles:    e.analysis.Status(),
	}
}

// Snapshots возвращает use case чтения снимков
func (e *Engine) Snapshots() *usecase.GetConsoleSnapshotUseCase {
	return e.snapshots
}

// Analysis возвращает use case анализа тренда
func (e *Engine) Analysis() *usecase.RunAnalysisUseCase {
	return e.analysis
}

// Anomaly возвращает use case управления режимом
func (e *Engine) Anomaly() *usecase.ManageAnomalyUseCase {
	return e.anomaly
}

// Directives возвращает use case управления директивами
func (e *Engine) Directives() *usecase.ManageDirectivesUseCase {
	return e.directives
}

// Handover возвращает use case передачи смены
func (e *Engine) Handover() *usecase.GenerateHandoverUseCase {
	return e.handover
}

// Ingest возвращает use case приема показаний
func (e *Engine) Ingest() *usecase.IngestReadingUseCase {
	return e.ingest
}
