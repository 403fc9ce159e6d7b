package main

import (
	"fmt"

	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/config"
)

// buildProfile накладывает YAML-профиль на профиль по умолчанию
func buildProfile(file *config.ProfileFile) (valueobject.GenerationProfile, error) {
	profile := valueobject.DefaultGenerationProfile()
	if file == nil {
		return profile, nil
	}

	if file.PressureIn != nil {
		profile.PressureIn = *file.PressureIn
	}
	applyRegime(&profile.Normal, file.Normal)
	applyRegime(&profile.Anomalous, file.Anomalous)

	if err := profile.Validate(); err != nil {
		return valueobject.GenerationProfile{}, fmt.Errorf("invalid generation profile: %w", err)
	}
	return profile, nil
}

func applyRegime(dst *valueobject.RegimeProfile, spec *config.RegimeSpec) {
	if spec == nil {
		return
	}
	applyRange(&dst.PowerKW, spec.PowerKW)
	applyRange(&dst.FlowRate, spec.FlowRate)
	applyRange(&dst.PressureOut, spec.PressureOut)
	applyRange(&dst.Efficiency, spec.Efficiency)
	applyRange(&dst.Temp, spec.Temp)
}

func applyRange(dst *valueobject.ValueRange, spec *config.RangeSpec) {
	if spec == nil {
		return
	}
	*dst = valueobject.ValueRange{Min: spec.Min, Max: spec.Max}
}

// buildDirectives создает стартовые директивы из конфигурации
func buildDirectives(seeds []config.DirectiveSeed) ([]*entity.Directive, error) {
	directives := make([]*entity.Directive, 0, len(seeds))
	seen := make(map[string]struct{}, len(seeds))

	for _, seed := range seeds {
		if _, dup := seen[seed.ID]; dup {
			return nil, fmt.Errorf("duplicate directive id %q", seed.ID)
		}
		seen[seed.ID] = struct{}{}

		d, err := entity.NewDirective(
			seed.ID, seed.Title, seed.Description, seed.Impact,
			seed.EstimatedSavings,
			valueobject.Urgency(seed.Urgency),
			seed.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("directive %q: %w", seed.ID, err)
		}
		directives = append(directives, d)
	}

	return directives, nil
}
