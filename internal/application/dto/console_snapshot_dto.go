package dto

import (
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/service"
)

// KPIDTO представляет производные показатели
type KPIDTO struct {
	CurrentPowerKW         int     `json:"current_power_kw"`
	DailyCostProjection    float64 `json:"daily_cost_projection"`
	EfficiencyPercent      int     `json:"efficiency_percent"`
	AnnualProjectedSavings float64 `json:"annual_projected_savings"`
	// Пересчет в местную валюту
	DailyCostLocal     float64 `json:"daily_cost_local"`
	AnnualSavingsLocal float64 `json:"annual_savings_local"`
}

// NewKPIDTO создает DTO из снимка KPI с курсом местной валюты
func NewKPIDTO(kpi service.KPISnapshot, currencyRate float64) KPIDTO {
	return KPIDTO{
		CurrentPowerKW:         kpi.CurrentPowerKW,
		DailyCostProjection:    kpi.DailyCostProjection,
		EfficiencyPercent:      kpi.EfficiencyPercent,
		AnnualProjectedSavings: kpi.AnnualProjectedSavings,
		DailyCostLocal:         kpi.DailyCostProjection * currencyRate,
		AnnualSavingsLocal:     kpi.AnnualProjectedSavings * currencyRate,
	}
}

// DirectiveDTO представляет директиву
type DirectiveDTO struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Impact           string    `json:"impact"`
	EstimatedSavings float64   `json:"estimated_savings"`
	Urgency          string    `json:"urgency"`
	CreatedAt        time.Time `json:"created_at"`
}

// FromDirective конвертирует директиву в DTO
func FromDirective(d *entity.Directive) DirectiveDTO {
	return DirectiveDTO{
		ID:               d.ID(),
		Title:            d.Title(),
		Description:      d.Description(),
		Impact:           d.Impact(),
		EstimatedSavings: d.EstimatedSavings(),
		Urgency:          d.Urgency().String(),
		CreatedAt:        d.CreatedAt(),
	}
}

// ToDirectiveDTOs конвертирует слайс директив в DTO
func ToDirectiveDTOs(directives []*entity.Directive) []DirectiveDTO {
	dtos := make([]DirectiveDTO, len(directives))
	for i, d := range directives {
		dtos[i] = FromDirective(d)
	}
	return dtos
}

// NarrativeDTO представляет заключение внешнего аналитика
type NarrativeDTO struct {
	RequestID   string     `json:"request_id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"` // "pending", "ready", "fallback"
	Text        string     `json:"text"`
	Input       string     `json:"input,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// FromNarrative конвертирует заключение в DTO, nil остается nil
func FromNarrative(n *entity.Narrative) *NarrativeDTO {
	if n == nil {
		return nil
	}

	out := &NarrativeDTO{
		RequestID:   n.RequestID(),
		Kind:        n.Kind().String(),
		Status:      string(n.Status()),
		Text:        n.Text(),
		Input:       n.Input(),
		RequestedAt: n.RequestedAt(),
	}
	if !n.CompletedAt().IsZero() {
		completed := n.CompletedAt()
		out.CompletedAt = &completed
	}
	return out
}

// InFlightDTO содержит количество незавершенных внешних вызовов
type InFlightDTO struct {
	Analysis    int `json:"analysis"`
	Diagnostic  int `json:"diagnostic"`
	Handover    int `json:"handover"`
	Explanation int `json:"explanation"`
}

// ConsoleSnapshotDTO представляет полный снимок консоли
// Используется для передачи через WebSocket и REST
type ConsoleSnapshotDTO struct {
	Timestamp     time.Time               `json:"timestamp"`
	Version       uint64                  `json:"version"`
	AnomalyActive bool                    `json:"anomaly_active"`
	Regime        string                  `json:"regime"`
	Telemetry     []ReadingDTO            `json:"telemetry"`
	KPI           KPIDTO                  `json:"kpi"`
	Directives    []DirectiveDTO          `json:"directives"`
	Analysis      *NarrativeDTO           `json:"analysis,omitempty"`
	Diagnostic    *NarrativeDTO           `json:"diagnostic,omitempty"`
	Handover      *NarrativeDTO           `json:"handover,omitempty"`
	Explanations  map[string]NarrativeDTO `json:"explanations,omitempty"`
	InFlight      InFlightDTO             `json:"in_flight"`
}

// AlertDTO представляет alert для отправки клиентам
type AlertDTO struct {
	Timestamp time.Time   `json:"timestamp"`
	Level     string      `json:"level"` // "info", "critical"
	Message   string      `json:"message"`
	Reading   *ReadingDTO `json:"reading,omitempty"`
}

// NewAlertDTO создает новый alert
func NewAlertDTO(level, message string, latest *entity.Reading) *AlertDTO {
	alert := &AlertDTO{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	}
	if latest != nil {
		r := FromReading(*latest)
		alert.Reading = &r
	}
	return alert
}

// AssetDTO представляет состояние одного компрессорного агрегата
type AssetDTO struct {
	Name    string  `json:"name"`
	PowerKW float64 `json:"power_kw"`
	Health  int     `json:"health"`
	Status  string  `json:"status"` // "nominal", "degraded"
}

// HostStatsDTO представляет загрузку хоста, на котором работает консоль
type HostStatsDTO struct {
	CPUPercent    float64   `json:"cpu_percent"`
	CPUCores      int       `json:"cpu_cores"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  float64   `json:"memory_used_mb"`
	DiskPercent   float64   `json:"disk_percent"`
	Goroutines    int       `json:"goroutines"`
	CollectedAt   time.Time `json:"collected_at"`
}

// AnalysisStatusDTO представляет состояние планировщика анализа
type AnalysisStatusDTO struct {
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	LastMode       string     `json:"last_mode,omitempty"`
	LastSkipReason string     `json:"last_skip_reason,omitempty"`
	Dispatched     int        `json:"dispatched"`
	Skipped        int        `json:"skipped"`
}
