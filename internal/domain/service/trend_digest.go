package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
)

// FormatTrendDigest форматирует хвост окна в компактную строку тренда
// Каждое показание: метка времени, округленная мощность и КПД в процентах
func FormatTrendDigest(readings []entity.Reading) string {
	parts := make([]string, 0, len(readings))
	for _, r := range readings {
		parts = append(parts, FormatDigestEntry(r))
	}
	return strings.Join(parts, ", ")
}

// FormatDigestEntry форматирует одно показание
func FormatDigestEntry(r entity.Reading) string {
	return fmt.Sprintf("[%s: P:%dkW, Eff:%d%%]",
		r.Timestamp(),
		int(math.Round(r.PowerKW())),
		int(math.Round(r.Efficiency()*100)),
	)
}

// FormatHandoverSummary строит фиксированную сводку для документа передачи смены
func FormatHandoverSummary(kpi KPISnapshot, anomalyActive bool) string {
	anomalies := "None"
	if anomalyActive {
		anomalies = "Critical Temp Alert"
	}

	return fmt.Sprintf("Last load: %dkW. Avg Efficiency: %d%%. Active anomalies: %s.",
		kpi.CurrentPowerKW, kpi.EfficiencyPercent, anomalies)
}
