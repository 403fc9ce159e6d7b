package valueobject

import "errors"

// NarrativeKind определяет тип текстового заключения внешнего аналитика
type NarrativeKind string

const (
	NarrativeAnalysis    NarrativeKind = "analysis"
	NarrativeDiagnostic  NarrativeKind = "diagnostic"
	NarrativeHandover    NarrativeKind = "handover"
	NarrativeExplanation NarrativeKind = "explanation"
)

// Validate проверяет валидность типа заключения
func (k NarrativeKind) Validate() error {
	switch k {
	case NarrativeAnalysis, NarrativeDiagnostic, NarrativeHandover, NarrativeExplanation:
		return nil
	default:
		return errors.New("invalid narrative kind")
	}
}

// String возвращает строковое представление типа
func (k NarrativeKind) String() string {
	return string(k)
}

// NarrativeStatus определяет состояние заключения в слоте результата
type NarrativeStatus string

const (
	NarrativePending  NarrativeStatus = "pending"
	NarrativeReady    NarrativeStatus = "ready"
	NarrativeFallback NarrativeStatus = "fallback"
)

// AnalysisMode определяет режим цикла анализа
type AnalysisMode string

const (
	AnalysisPeriodic AnalysisMode = "periodic"
	AnalysisOnDemand AnalysisMode = "on_demand"
)

// String возвращает строковое представление режима
func (m AnalysisMode) String() string {
	return string(m)
}
