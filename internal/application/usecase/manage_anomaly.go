package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/service"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// ManageAnomalyUseCase переключает режим генерации и управляет диагностикой
type ManageAnomalyUseCase struct {
	state          *state.ConsoleState
	generator      *service.ReadingGenerator
	diagnostician  port.AnomalyDiagnostician
	dispatcher     *Dispatcher
	metrics        port.ConsoleMetrics
	notifier       *ConsoleNotifier
	windowCapacity int
	logger         *logger.Logger
}

// NewManageAnomalyUseCase создает новый use case
func NewManageAnomalyUseCase(
	state *state.ConsoleState,
	generator *service.ReadingGenerator,
	diagnostician port.AnomalyDiagnostician,
	dispatcher *Dispatcher,
	metrics port.ConsoleMetrics,
	notifier *ConsoleNotifier,
	windowCapacity int,
	logger *logger.Logger,
) *ManageAnomalyUseCase {
	if windowCapacity <= 0 {
		windowCapacity = entity.DefaultWindowCapacity
	}

	return &ManageAnomalyUseCase{
		state:          state,
		generator:      generator,
		diagnostician:  diagnostician,
		dispatcher:     dispatcher,
		metrics:        metrics,
		notifier:       notifier,
		windowCapacity: windowCapacity,
		logger:         logger,
	}
}

// Activate включает аномальный режим и отправляет запрос анализа первопричины
// Каждый вызов отправляет ровно один запрос, режим при повторе не меняется
func (uc *ManageAnomalyUseCase) Activate(ctx context.Context) error {
	// 1. Переключаем режим
	prev := uc.state.SetRegime(valueobject.RegimeAnomalous)
	if uc.metrics != nil {
		uc.metrics.SetAnomalyActive(true)
	}

	// 2. Ставим маркер ожидания и регистрируем запрос
	pending := entity.NewPendingNarrative(valueobject.NarrativeDiagnostic, AnomalySymptoms, DiagnosticPending, time.Now())
	ticket := uc.state.Begin(state.SlotDiagnostic, &pending)

	uc.logger.Warn("Anomaly regime activated",
		"already_active", prev.IsAnomalous(),
		"request_id", pending.RequestID())

	// 3. Запрос уходит вне потока изменения состояния
	uc.dispatcher.Go(func(callCtx context.Context) {
		uc.completeDiagnostic(callCtx, ticket, pending)
	})

	// 4. Оповещаем клиентов
	var latest *entity.Reading
	if r, ok := uc.state.Window().Latest(); ok {
		latest = &r
	}
	uc.notifier.Alert("critical", "Anomaly detected: "+AnomalySymptoms, latest)
	uc.notifier.Changed(ctx, port.SubjectAnomalyActivated, map[string]interface{}{
		"request_id": pending.RequestID(),
		"symptoms":   AnomalySymptoms,
	})

	return nil
}

// Resolve возвращает штатный режим и очищает диагностику
func (uc *ManageAnomalyUseCase) Resolve(ctx context.Context) error {
	prev := uc.state.ResolveRegime()
	if uc.metrics != nil {
		uc.metrics.SetAnomalyActive(false)
	}

	uc.logger.Info("Anomaly regime resolved", "was_active", prev.IsAnomalous())

	uc.notifier.Alert("info", "Anomaly resolved, normal operation restored", nil)
	uc.notifier.Changed(ctx, port.SubjectAnomalyResolved, nil)

	return nil
}

// Reset пересоздает окно из штатных показаний и очищает режим и результаты
// Набор директив сохраняется
func (uc *ManageAnomalyUseCase) Reset(ctx context.Context) error {
	window, err := uc.generator.Seed(uc.windowCapacity, uc.windowCapacity)
	if err != nil {
		uc.logger.Error("Failed to seed window", err)
		return fmt.Errorf("failed to seed window: %w", err)
	}

	uc.state.Reset(window)
	if uc.metrics != nil {
		uc.metrics.SetAnomalyActive(false)
	}

	uc.logger.Info("Console reset", "readings", window.Len())

	uc.notifier.Changed(ctx, port.SubjectConsoleReset, map[string]interface{}{
		"readings": window.Len(),
	})

	return nil
}

func (uc *ManageAnomalyUseCase) completeDiagnostic(ctx context.Context, ticket state.Ticket, pending entity.Narrative) {
	text, err := uc.diagnostician.Diagnose(ctx, AnomalySymptoms)
	if err != nil {
		uc.logger.Warn("Root cause analysis failed, using fallback", "error", err.Error())
	}

	result, fallback := resolveNarrative(text, err, FallbackDiagnostic)
	if fallback && uc.metrics != nil {
		uc.metrics.NarrativeFailed(valueobject.NarrativeDiagnostic.String())
	}

	if !uc.state.Complete(ticket, pending.Complete(result, fallback, time.Now())) {
		if uc.metrics != nil {
			uc.metrics.CompletionDiscarded(string(state.SlotDiagnostic))
		}
		uc.logger.Debug("Stale diagnostic result discarded", "request_id", pending.RequestID())
		return
	}

	uc.notifier.Changed(ctx, port.SubjectNarrativeCompleted, map[string]interface{}{
		"kind":       valueobject.NarrativeDiagnostic.String(),
		"request_id": pending.RequestID(),
		"fallback":   fallback,
	})
}
