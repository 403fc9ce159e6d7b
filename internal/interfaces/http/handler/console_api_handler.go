package handler

import (
	"errors"
	"net/http"

	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/application/usecase"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/internal/interfaces/http/middleware"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// ConsoleAPIHandler обслуживает REST API консоли
// Любое изменение состояния проходит через use case
type ConsoleAPIHandler struct {
	snapshots     *usecase.GetConsoleSnapshotUseCase
	analysis      *usecase.RunAnalysisUseCase
	anomaly       *usecase.ManageAnomalyUseCase
	directives    *usecase.ManageDirectivesUseCase
	handover      *usecase.GenerateHandoverUseCase
	hostCollector port.HostCollector
	logger        *logger.Logger
}

// NewConsoleAPIHandler создает новый handler
func NewConsoleAPIHandler(
	snapshots *usecase.GetConsoleSnapshotUseCase,
	analysis *usecase.RunAnalysisUseCase,
	anomaly *usecase.ManageAnomalyUseCase,
	directives *usecase.ManageDirectivesUseCase,
	handover *usecase.GenerateHandoverUseCase,
	hostCollector port.HostCollector, // Can be nil
	logger *logger.Logger,
) *ConsoleAPIHandler {
	return &ConsoleAPIHandler{
		snapshots:     snapshots,
		analysis:      analysis,
		anomaly:       anomaly,
		directives:    directives,
		handover:      handover,
		hostCollector: hostCollector,
		logger:        logger,
	}
}

// GetConsole возвращает полный снимок консоли
func (h *ConsoleAPIHandler) GetConsole(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.snapshots.Execute(r.Context()))
}

// GetTelemetry возвращает окно показаний
func (h *ConsoleAPIHandler) GetTelemetry(w http.ResponseWriter, r *http.Request) {
	telemetry := h.snapshots.Telemetry(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"count":    len(telemetry),
		"readings": telemetry,
	})
}

// GetKPI возвращает производные показатели
func (h *ConsoleAPIHandler) GetKPI(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.snapshots.KPI(r.Context()))
}

// GetAssets возвращает разбивку мощности по агрегатам
func (h *ConsoleAPIHandler) GetAssets(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"assets": h.snapshots.Assets(r.Context()),
	})
}

// GetSystem возвращает загрузку хоста консоли
func (h *ConsoleAPIHandler) GetSystem(w http.ResponseWriter, r *http.Request) {
	if h.hostCollector == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "host stats are disabled")
		return
	}

	stats, err := h.hostCollector.Collect(r.Context())
	if err != nil {
		h.logger.Error("Failed to collect host stats", err, "request_id", middleware.RequestID(r))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to collect host stats")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, stats)
}

// ActivateAnomaly переводит консоль в аномальный режим
func (h *ConsoleAPIHandler) ActivateAnomaly(w http.ResponseWriter, r *http.Request) {
	if err := h.anomaly.Activate(r.Context()); err != nil {
		h.logger.Error("Failed to activate anomaly", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to activate anomaly")
		return
	}
	h.writeSnapshot(w, r)
}

// ResolveAnomaly возвращает штатный режим
func (h *ConsoleAPIHandler) ResolveAnomaly(w http.ResponseWriter, r *http.Request) {
	if err := h.anomaly.Resolve(r.Context()); err != nil {
		h.logger.Error("Failed to resolve anomaly", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to resolve anomaly")
		return
	}
	h.writeSnapshot(w, r)
}

// Reset пересоздает окно и сбрасывает результаты
func (h *ConsoleAPIHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.anomaly.Reset(r.Context()); err != nil {
		h.logger.Error("Failed to reset console", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to reset console")
		return
	}
	h.writeSnapshot(w, r)
}

// RunDeepAnalysis запускает анализ по запросу оператора
func (h *ConsoleAPIHandler) RunDeepAnalysis(w http.ResponseWriter, r *http.Request) {
	if !h.analysis.Trigger(valueobject.AnalysisOnDemand) {
		status := h.analysis.Status()
		middleware.WriteJSON(w, http.StatusConflict, map[string]any{
			"error":  "analysis skipped",
			"reason": status.LastSkipReason,
		})
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]any{
		"status": "dispatched",
		"mode":   valueobject.AnalysisOnDemand.String(),
	})
}

// GenerateHandover запускает подготовку отчета о передаче смены
func (h *ConsoleAPIHandler) GenerateHandover(w http.ResponseWriter, r *http.Request) {
	requestID := h.handover.Execute(r.Context())
	middleware.WriteJSON(w, http.StatusAccepted, map[string]any{
		"status":     "dispatched",
		"request_id": requestID,
	})
}

// ExecuteDirective применяет директиву и убирает ее из списка
// Повторное исполнение не является ошибкой: возвращается текущий снимок
func (h *ConsoleAPIHandler) ExecuteDirective(w http.ResponseWriter, r *http.Request) {
	h.directives.Execute(r.Context(), r.PathValue("id"))
	h.writeSnapshot(w, r)
}

// ExplainDirective запрашивает техническое обоснование директивы
func (h *ConsoleAPIHandler) ExplainDirective(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	requestID, err := h.directives.Explain(r.Context(), id)
	if errors.Is(err, entity.ErrDirectiveNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "directive not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to request directive explanation", err, "id", id)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to request explanation")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]any{
		"status":       "dispatched",
		"directive_id": id,
		"request_id":   requestID,
	})
}

func (h *ConsoleAPIHandler) writeSnapshot(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.snapshots.Execute(r.Context()))
}
