package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RangeSpec - диапазон [min, max) в YAML-профиле генерации
type RangeSpec struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// RegimeSpec - диапазоны одного режима
type RegimeSpec struct {
	PowerKW     *RangeSpec `yaml:"power_kw"`
	FlowRate    *RangeSpec `yaml:"flow_rate"`
	PressureOut *RangeSpec `yaml:"pressure_out"`
	Efficiency  *RangeSpec `yaml:"efficiency"`
	Temp        *RangeSpec `yaml:"temp"`
}

// ProfileFile - содержимое YAML-файла профиля генерации
// Незаданные поля оставляют значения по умолчанию
type ProfileFile struct {
	PressureIn *float64    `yaml:"pressure_in"`
	Normal     *RegimeSpec `yaml:"normal"`
	Anomalous  *RegimeSpec `yaml:"anomalous"`
}

// DirectiveSeed - начальная директива
type DirectiveSeed struct {
	ID               string    `yaml:"id"`
	Title            string    `yaml:"title"`
	Description      string    `yaml:"description"`
	Impact           string    `yaml:"impact"`
	EstimatedSavings float64   `yaml:"estimated_savings"`
	Urgency          string    `yaml:"urgency"`
	CreatedAt        time.Time `yaml:"-"`
}

type directiveSeedFile struct {
	Directives []DirectiveSeed `yaml:"directives"`
}

// LoadProfileFile читает YAML-профиль генерации
// Пустой путь означает профиль по умолчанию (nil, nil)
func LoadProfileFile(path string) (*ProfileFile, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var profile ProfileFile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	return &profile, nil
}

// LoadDirectiveSeeds читает YAML со стартовым набором директив
// Пустой путь означает встроенный набор
func LoadDirectiveSeeds(path string) ([]DirectiveSeed, error) {
	if path == "" {
		return DefaultDirectiveSeeds(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directives file: %w", err)
	}

	var file directiveSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse directives file: %w", err)
	}

	now := time.Now()
	for i := range file.Directives {
		file.Directives[i].CreatedAt = now
	}

	return file.Directives, nil
}

// DefaultDirectiveSeeds возвращает встроенный стартовый набор директив
func DefaultDirectiveSeeds() []DirectiveSeed {
	now := time.Now()
	return []DirectiveSeed{
		{
			ID:               "1",
			Title:            "Dynamic Load Rebalancing",
			Description:      "Compressor #2 is operating at a low-efficiency surge point. Shift 40kg/s flow to Compressor #1.",
			Impact:           "Reduce energy intensity by 12%",
			EstimatedSavings: 340,
			Urgency:          "high",
			CreatedAt:        now,
		},
		{
			ID:               "2",
			Title:            "Intercooler Maintenance Flag",
			Description:      "Staged temperature delta on Compressor #3 suggests slight fouling in the stage 2 intercooler.",
			Impact:           "Avoid 3.5% efficiency degradation",
			EstimatedSavings: 85,
			Urgency:          "medium",
			CreatedAt:        now,
		},
	}
}
