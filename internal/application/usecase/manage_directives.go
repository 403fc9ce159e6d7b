package usecase

import (
	"context"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// ManageDirectivesUseCase исполняет директивы и запрашивает пояснения к ним
type ManageDirectivesUseCase struct {
	state        *state.ConsoleState
	explainer    port.DirectiveExplainer
	dispatcher   *Dispatcher
	metrics      port.ConsoleMetrics
	notifier     *ConsoleNotifier
	plantContext string
	logger       *logger.Logger
}

// NewManageDirectivesUseCase создает новый use case
func NewManageDirectivesUseCase(
	state *state.ConsoleState,
	explainer port.DirectiveExplainer,
	dispatcher *Dispatcher,
	metrics port.ConsoleMetrics,
	notifier *ConsoleNotifier,
	plantContext string,
	logger *logger.Logger,
) *ManageDirectivesUseCase {
	return &ManageDirectivesUseCase{
		state:        state,
		explainer:    explainer,
		dispatcher:   dispatcher,
		metrics:      metrics,
		notifier:     notifier,
		plantContext: plantContext,
		logger:       logger,
	}
}

// List возвращает текущий набор директив
func (uc *ManageDirectivesUseCase) List(_ context.Context) []dto.DirectiveDTO {
	return dto.ToDirectiveDTOs(uc.state.Directives())
}

// Execute удаляет директиву навсегда
// Повторный вызов и неизвестный id ничего не меняют и не считаются ошибкой
func (uc *ManageDirectivesUseCase) Execute(ctx context.Context, id string) bool {
	removed, ok := uc.state.RemoveDirective(id)
	if !ok {
		uc.logger.Debug("Directive already executed or unknown", "id", id)
		return false
	}

	uc.logger.Info("Directive executed",
		"id", removed.ID(),
		"title", removed.Title(),
		"estimated_savings", removed.EstimatedSavings())

	uc.notifier.Changed(ctx, port.SubjectDirectiveExecuted, map[string]interface{}{
		"id":                removed.ID(),
		"title":             removed.Title(),
		"estimated_savings": removed.EstimatedSavings(),
	})

	return true
}

// Explain запрашивает техническое пояснение к директиве
// Результат хранится до исполнения директивы
func (uc *ManageDirectivesUseCase) Explain(_ context.Context, id string) (string, error) {
	directive, ok := uc.state.FindDirective(id)
	if !ok {
		return "", entity.ErrDirectiveNotFound
	}

	pending := entity.NewPendingNarrative(valueobject.NarrativeExplanation, directive.Description(), "", time.Now())
	ticket, ok := uc.state.BeginExplanation(id, &pending)
	if !ok {
		return "", entity.ErrDirectiveNotFound
	}

	description := directive.Description()
	uc.dispatcher.Go(func(callCtx context.Context) {
		text, err := uc.explainer.Explain(callCtx, description, uc.plantContext)
		if err != nil {
			uc.logger.Warn("Directive explanation failed, using fallback", "id", id, "error", err.Error())
		}

		result, fallback := resolveNarrative(text, err, FallbackExplanation)
		if fallback && uc.metrics != nil {
			uc.metrics.NarrativeFailed(valueobject.NarrativeExplanation.String())
		}

		if !uc.state.Complete(ticket, pending.Complete(result, fallback, time.Now())) {
			if uc.metrics != nil {
				uc.metrics.CompletionDiscarded(string(state.SlotExplanation))
			}
			return
		}

		uc.notifier.Changed(callCtx, port.SubjectNarrativeCompleted, map[string]interface{}{
			"kind":         valueobject.NarrativeExplanation.String(),
			"directive_id": id,
			"request_id":   pending.RequestID(),
			"fallback":     fallback,
		})
	})

	return pending.RequestID(), nil
}
