package handler

import (
	"net/http"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/engine"
	"github.com/aratrikkk/UrjaBharat/internal/interfaces/http/middleware"
)

// EngineStatus отдает состояние фоновых задач ядра
type EngineStatus interface {
	Status() engine.Status
}

// HealthHandler обслуживает проверки живости и готовности
type HealthHandler struct {
	engine EngineStatus
}

// NewHealthHandler создает новый handler
func NewHealthHandler(engine EngineStatus) *HealthHandler {
	return &HealthHandler{engine: engine}
}

// Healthz сообщает, что процесс жив, и кратко описывает циклы
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	status := h.engine.Status()

	response := map[string]any{
		"status":            "ok",
		"ingestion_running": status.Ingestion.Running,
		"ingestion_ticks":   status.Ingestion.Runs,
		"analysis_running":  status.Analysis.Running,
		"analysis":          status.Cycles,
	}
	if !status.Ingestion.StartedAt.IsZero() {
		response["uptime"] = time.Since(status.Ingestion.StartedAt).Round(time.Second).String()
	}
	if !status.Ingestion.LastRunAt.IsZero() {
		response["last_tick"] = status.Ingestion.LastRunAt.UTC().Format(time.RFC3339)
	}
	if status.Ingestion.LastError != "" {
		response["last_error"] = status.Ingestion.LastError
	}

	middleware.WriteJSON(w, http.StatusOK, response)
}

// Readyz готов, когда прием показаний идет и последний такт свежий
func (h *HealthHandler) Readyz(w http.ResponseWriter, _ *http.Request) {
	ingestion := h.engine.Status().Ingestion

	if !ingestion.Running {
		middleware.WriteError(w, http.StatusServiceUnavailable, "not ready: ingestion is not running")
		return
	}
	if ingestion.LastRunAt.IsZero() {
		middleware.WriteError(w, http.StatusServiceUnavailable, "not ready: no ingestion tick yet")
		return
	}
	if time.Since(ingestion.LastRunAt) > ingestion.Interval*3 {
		middleware.WriteError(w, http.StatusServiceUnavailable, "not ready: stale ingestion tick")
		return
	}
	if ingestion.LastError != "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "not ready: last tick failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
