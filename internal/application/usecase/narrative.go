package usecase

import "strings"

// Резервные тексты на случай отказа внешнего аналитика
const (
	FallbackAnalysis    = "Predictive engine warming up. Analyzing trend buffers for next reporting cycle..."
	FallbackDiagnostic  = "Unable to perform RCA. Consult manual Section 4.B."
	FallbackHandover    = "Failed to generate official report."
	FallbackExplanation = "Technical briefing currently unavailable. Proceed with standard operating procedure."

	// DiagnosticPending показывается, пока анализ первопричины в работе
	DiagnosticPending = "Anomaly detected. Core Intelligence Engine performing Root Cause Analysis..."

	// AnomalySymptoms - фиксированное описание симптомов аномального режима
	AnomalySymptoms = "Power spike to 580kW, Flow drop to 130kg/s, Temp increase to 45C. Discharge pressure 6.1 bar."
)

// resolveNarrative заменяет ошибку или пустой ответ резервным текстом
// Второе значение - признак того, что использован резервный текст
func resolveNarrative(text string, err error, fallback string) (string, bool) {
	if err != nil {
		return fallback, true
	}
	if strings.TrimSpace(text) == "" {
		return fallback, true
	}
	return text, false
}
