package port

import "context"

// TrendAnalyst анализирует дайджест тренда и возвращает прогноз (Port)
type TrendAnalyst interface {
	Analyze(ctx context.Context, trendDigest string) (string, error)
}

// AnomalyDiagnostician выполняет анализ первопричины по симптомам (Port)
type AnomalyDiagnostician interface {
	Diagnose(ctx context.Context, symptoms string) (string, error)
}

// HandoverWriter составляет документ передачи смены (Port)
type HandoverWriter interface {
	Summarize(ctx context.Context, dataSummary string) (string, error)
}

// DirectiveExplainer объясняет директиву оператору (Port)
type DirectiveExplainer interface {
	Explain(ctx context.Context, description, plantContext string) (string, error)
}

// Narrator объединяет всех внешних аналитиков
// Реализация будет в Infrastructure слое (Gemini клиент)
type Narrator interface {
	TrendAnalyst
	AnomalyDiagnostician
	HandoverWriter
	DirectiveExplainer
}
