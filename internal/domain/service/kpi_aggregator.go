package service

import (
	"math"

	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
)

const (
	// DefaultUnitEnergyCost - стоимость кВт·ч по умолчанию
	DefaultUnitEnergyCost = 0.085

	hoursPerDay = 24
	daysPerYear = 365
)

// KPISnapshot - производные показатели консоли (чистая проекция окна и директив)
type KPISnapshot struct {
	CurrentPowerKW         int
	DailyCostProjection    float64
	EfficiencyPercent      int
	AnnualProjectedSavings float64
}

// KPIAggregator вычисляет KPI по окну и набору директив (Domain Service)
// Не хранит состояния: одинаковые входы дают одинаковый результат
type KPIAggregator struct {
	unitEnergyCost float64
}

// NewKPIAggregator создает агрегатор с ценой электроэнергии
func NewKPIAggregator(unitEnergyCost float64) *KPIAggregator {
	if unitEnergyCost <= 0 {
		unitEnergyCost = DefaultUnitEnergyCost
	}
	return &KPIAggregator{unitEnergyCost: unitEnergyCost}
}

// Aggregate вычисляет снимок KPI
// Для пустого окна возвращается нулевой снимок
func (a *KPIAggregator) Aggregate(window entity.Window, directives []*entity.Directive) KPISnapshot {
	latest, ok := window.Latest()
	if !ok {
		return KPISnapshot{}
	}

	return KPISnapshot{
		CurrentPowerKW:         int(math.Round(latest.PowerKW())),
		DailyCostProjection:    latest.PowerKW() * hoursPerDay * a.unitEnergyCost,
		EfficiencyPercent:      int(math.Round(latest.Efficiency() * 100)),
		AnnualProjectedSavings: AnnualSavings(directives),
	}
}

// AnnualSavings суммирует годовую экономию по директивам
func AnnualSavings(directives []*entity.Directive) float64 {
	var sum float64
	for _, d := range directives {
		sum += d.EstimatedSavings() * daysPerYear
	}
	return sum
}

// UnitEnergyCost возвращает цену кВт·ч
func (a *KPIAggregator) UnitEnergyCost() float64 {
	return a.unitEnergyCost
}
