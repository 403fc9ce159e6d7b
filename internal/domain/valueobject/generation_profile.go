package valueobject

import (
	"errors"
	"fmt"
)

// ValueRange представляет полуинтервал [Min, Max) (Value Object)
type ValueRange struct {
	Min float64
	Max float64
}

// NewValueRange создает диапазон с валидацией
func NewValueRange(min, max float64) (ValueRange, error) {
	r := ValueRange{Min: min, Max: max}
	if err := r.Validate(); err != nil {
		return ValueRange{}, err
	}
	return r, nil
}

// Validate проверяет, что нижняя граница не больше верхней
func (r ValueRange) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("range min %.3f is greater than max %.3f", r.Min, r.Max)
	}
	return nil
}

// Sample отображает u из [0, 1) в диапазон
func (r ValueRange) Sample(u float64) float64 {
	return r.Min + u*(r.Max-r.Min)
}

// Contains проверяет попадание значения в полуинтервал
func (r ValueRange) Contains(v float64) bool {
	return v >= r.Min && v < r.Max
}

// RegimeProfile содержит диапазоны генерации для одного режима
type RegimeProfile struct {
	PowerKW     ValueRange
	FlowRate    ValueRange
	PressureOut ValueRange
	Efficiency  ValueRange
	Temp        ValueRange
}

// Validate проверяет все диапазоны режима
func (p RegimeProfile) Validate() error {
	ranges := map[string]ValueRange{
		"power_kw":     p.PowerKW,
		"flow_rate":    p.FlowRate,
		"pressure_out": p.PressureOut,
		"efficiency":   p.Efficiency,
		"temp":         p.Temp,
	}
	for name, r := range ranges {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if p.Efficiency.Min < 0 || p.Efficiency.Max > 1 {
		return errors.New("efficiency: range must stay within [0, 1]")
	}

	return nil
}

// GenerationProfile задает распределения синтетической телеметрии
// Значения эмпирические и являются конфигурацией, а не физической моделью
type GenerationProfile struct {
	PressureIn float64
	Normal     RegimeProfile
	Anomalous  RegimeProfile
}

// DefaultGenerationProfile возвращает профиль по умолчанию
func DefaultGenerationProfile() GenerationProfile {
	return GenerationProfile{
		PressureIn: 1.0,
		Normal: RegimeProfile{
			PowerKW:     ValueRange{Min: 410, Max: 455},
			FlowRate:    ValueRange{Min: 165, Max: 180},
			PressureOut: ValueRange{Min: 7.2, Max: 7.6},
			Efficiency:  ValueRange{Min: 0.85, Max: 0.90},
			Temp:        ValueRange{Min: 22, Max: 26},
		},
		Anomalous: RegimeProfile{
			PowerKW:     ValueRange{Min: 580, Max: 630},
			FlowRate:    ValueRange{Min: 130, Max: 140},
			PressureOut: ValueRange{Min: 6.1, Max: 6.4},
			Efficiency:  ValueRange{Min: 0.65, Max: 0.70},
			Temp:        ValueRange{Min: 42, Max: 52},
		},
	}
}

// For возвращает профиль для указанного режима
func (p GenerationProfile) For(regime Regime) RegimeProfile {
	if regime.IsAnomalous() {
		return p.Anomalous
	}
	return p.Normal
}

// Validate проверяет профиль целиком
func (p GenerationProfile) Validate() error {
	if err := p.Normal.Validate(); err != nil {
		return fmt.Errorf("normal profile: %w", err)
	}
	if err := p.Anomalous.Validate(); err != nil {
		return fmt.Errorf("anomalous profile: %w", err)
	}
	return nil
}
