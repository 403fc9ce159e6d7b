package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/service"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// RunAnalysisConfig задает размеры выборки для режимов анализа
type RunAnalysisConfig struct {
	PeriodicSample int
	OnDemandSample int
	MinReadings    int
}

// analysisRequest - подготовленный запрос анализа
type analysisRequest struct {
	mode    valueobject.AnalysisMode
	digest  string
	ticket  state.Ticket
	pending entity.Narrative
}

// RunAnalysisUseCase формирует дайджест тренда и отправляет его аналитику
type RunAnalysisUseCase struct {
	state      *state.ConsoleState
	analyst    port.TrendAnalyst
	dispatcher *Dispatcher
	metrics    port.ConsoleMetrics
	notifier   *ConsoleNotifier
	cfg        RunAnalysisConfig
	logger     *logger.Logger

	statusMu sync.RWMutex
	status   dto.AnalysisStatusDTO
}

// NewRunAnalysisUseCase создает новый use case
func NewRunAnalysisUseCase(
	state *state.ConsoleState,
	analyst port.TrendAnalyst,
	dispatcher *Dispatcher,
	metrics port.ConsoleMetrics,
	notifier *ConsoleNotifier,
	cfg RunAnalysisConfig,
	logger *logger.Logger,
) *RunAnalysisUseCase {
	if cfg.PeriodicSample <= 0 {
		cfg.PeriodicSample = 10
	}
	if cfg.OnDemandSample <= 0 {
		cfg.OnDemandSample = 15
	}
	if cfg.MinReadings <= 0 {
		cfg.MinReadings = cfg.PeriodicSample
	}

	return &RunAnalysisUseCase{
		state:      state,
		analyst:    analyst,
		dispatcher: dispatcher,
		metrics:    metrics,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Trigger готовит цикл анализа и отправляет вызов асинхронно
// Возвращает false, если цикл пропущен по предусловию
func (uc *RunAnalysisUseCase) Trigger(mode valueobject.AnalysisMode) bool {
	req, ok := uc.prepare(mode)
	if !ok {
		return false
	}

	uc.dispatcher.Go(func(ctx context.Context) {
		uc.complete(ctx, req)
	})
	return true
}

// Execute выполняет цикл анализа синхронно
func (uc *RunAnalysisUseCase) Execute(ctx context.Context, mode valueobject.AnalysisMode) bool {
	req, ok := uc.prepare(mode)
	if !ok {
		return false
	}

	uc.complete(ctx, req)
	return true
}

// Status возвращает состояние планировщика анализа
func (uc *RunAnalysisUseCase) Status() dto.AnalysisStatusDTO {
	uc.statusMu.RLock()
	defer uc.statusMu.RUnlock()
	return uc.status
}

func (uc *RunAnalysisUseCase) prepare(mode valueobject.AnalysisMode) (analysisRequest, bool) {
	window := uc.state.Window()

	// 1. Проверяем предусловия режима
	sample := uc.cfg.OnDemandSample
	if mode == valueobject.AnalysisPeriodic {
		sample = uc.cfg.PeriodicSample
		if window.Len() < uc.cfg.MinReadings {
			uc.skip(mode, "insufficient readings")
			uc.logger.Debug("Periodic analysis skipped", "readings", window.Len(), "required", uc.cfg.MinReadings)
			return analysisRequest{}, false
		}
	}
	if window.IsEmpty() {
		uc.skip(mode, "empty window")
		uc.logger.Debug("Analysis skipped on empty window", "mode", mode.String())
		return analysisRequest{}, false
	}

	// 2. Формируем дайджест хвоста окна
	digest := service.FormatTrendDigest(window.Tail(sample))

	// 3. Регистрируем запрос в ячейке результата
	req := analysisRequest{
		mode:    mode,
		digest:  digest,
		ticket:  uc.state.Begin(state.SlotAnalysis, nil),
		pending: entity.NewPendingNarrative(valueobject.NarrativeAnalysis, digest, "", time.Now()),
	}

	uc.dispatched(mode)
	if uc.metrics != nil {
		uc.metrics.AnalysisDispatched(mode.String())
	}
	uc.logger.Debug("Analysis dispatched", "mode", mode.String(), "sample", sample, "request_id", req.pending.RequestID())

	return req, true
}

func (uc *RunAnalysisUseCase) complete(ctx context.Context, req analysisRequest) {
	text, err := uc.analyst.Analyze(ctx, req.digest)
	if err != nil {
		uc.logger.Warn("Trend analysis failed, using fallback", "mode", req.mode.String(), "error", err.Error())
	}

	result, fallback := resolveNarrative(text, err, FallbackAnalysis)
	if fallback && uc.metrics != nil {
		uc.metrics.NarrativeFailed(valueobject.NarrativeAnalysis.String())
	}

	if !uc.state.Complete(req.ticket, req.pending.Complete(result, fallback, time.Now())) {
		if uc.metrics != nil {
			uc.metrics.CompletionDiscarded(string(state.SlotAnalysis))
		}
		uc.logger.Debug("Stale analysis result discarded", "request_id", req.pending.RequestID())
		return
	}

	uc.notifier.Changed(ctx, port.SubjectNarrativeCompleted, map[string]interface{}{
		"kind":       valueobject.NarrativeAnalysis.String(),
		"mode":       req.mode.String(),
		"request_id": req.pending.RequestID(),
		"fallback":   fallback,
	})
}

func (uc *RunAnalysisUseCase) dispatched(mode valueobject.AnalysisMode) {
	uc.statusMu.Lock()
	defer uc.statusMu.Unlock()

	now := time.Now()
	uc.status.LastRunAt = &now
	uc.status.LastMode = mode.String()
	uc.status.LastSkipReason = ""
	uc.status.Dispatched++
}

func (uc *RunAnalysisUseCase) skip(mode valueobject.AnalysisMode, reason string) {
	uc.statusMu.Lock()
	defer uc.statusMu.Unlock()

	uc.status.LastMode = mode.String()
	uc.status.LastSkipReason = reason
	uc.status.Skipped++
}
