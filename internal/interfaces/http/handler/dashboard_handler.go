package handler

import (
	"net/http"

	"github.com/aratrikkk/UrjaBharat/internal/application/usecase"
	"github.com/aratrikkk/UrjaBharat/internal/interfaces/view"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// DashboardHandler отдает страницу консоли
type DashboardHandler struct {
	snapshots *usecase.GetConsoleSnapshotUseCase
	logger    *logger.Logger
}

// NewDashboardHandler создает новый handler
func NewDashboardHandler(
	snapshots *usecase.GetConsoleSnapshotUseCase,
	logger *logger.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		snapshots: snapshots,
		logger:    logger,
	}
}

// ShowConsole отображает главную страницу консоли
func (h *DashboardHandler) ShowConsole(w http.ResponseWriter, r *http.Request) {
	snapshot := h.snapshots.Execute(r.Context())

	// Рендерим Templ template
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Console(snapshot).Render(r.Context(), w); err != nil {
		h.logger.Error("Failed to render console", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
