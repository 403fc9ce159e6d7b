package port

import "github.com/aratrikkk/UrjaBharat/internal/domain/entity"

// ConsoleMetrics регистрирует внутренние счетчики консоли (Port)
// Реализация - Prometheus коллекторы
type ConsoleMetrics interface {
	// ObserveTick фиксирует такт приема показаний
	ObserveTick(windowLen int, latest entity.Reading)

	// SetAnomalyActive фиксирует текущий режим
	SetAnomalyActive(active bool)

	// AnalysisDispatched считает отправленные циклы анализа по режиму
	AnalysisDispatched(mode string)

	// NarrativeFailed считает отказы внешнего аналитика по типу
	NarrativeFailed(kind string)

	// CompletionDiscarded считает отброшенные устаревшие ответы
	CompletionDiscarded(slot string)
}
