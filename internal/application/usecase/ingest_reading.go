package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/service"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// fallbackTimeLabel используется, если метку последнего показания не удалось разобрать
const fallbackTimeLabel = "00:00"

// IngestReadingUseCase выполняет один такт приема: метка -> генерация -> добавление в окно
type IngestReadingUseCase struct {
	state            *state.ConsoleState
	generator        *service.ReadingGenerator
	aggregator       *service.KPIAggregator
	metrics          port.ConsoleMetrics
	metricsPublisher port.MetricsPublisher
	notifier         *ConsoleNotifier
	logger           *logger.Logger
}

// NewIngestReadingUseCase создает новый use case
func NewIngestReadingUseCase(
	state *state.ConsoleState,
	generator *service.ReadingGenerator,
	aggregator *service.KPIAggregator,
	metrics port.ConsoleMetrics,
	metricsPublisher port.MetricsPublisher, // Can be nil if CloudWatch disabled
	notifier *ConsoleNotifier,
	logger *logger.Logger,
) *IngestReadingUseCase {
	return &IngestReadingUseCase{
		state:            state,
		generator:        generator,
		aggregator:       aggregator,
		metrics:          metrics,
		metricsPublisher: metricsPublisher,
		notifier:         notifier,
		logger:           logger,
	}
}

// Execute выполняет такт приема показания
// Пустое окно - нарушение предусловия: такт пропускается без ошибки
func (uc *IngestReadingUseCase) Execute(ctx context.Context) error {
	// 1. Генерируем и добавляем показание атомарно относительно сброса и смены режима
	var appended entity.Reading
	window, err := uc.state.UpdateWindow(func(w entity.Window, regime valueobject.Regime) (entity.Window, error) {
		latest, ok := w.Latest()
		if !ok {
			return w, entity.ErrWindowNotInitialized
		}

		label, labelErr := valueobject.NextTimeLabel(latest.Timestamp())
		if labelErr != nil {
			uc.logger.Warn("Unparseable time label, restarting clock", "label", latest.Timestamp(), "error", labelErr.Error())
			label = fallbackTimeLabel
		}

		appended = uc.generator.Generate(label, regime)
		return w.Append(appended)
	})
	if errors.Is(err, entity.ErrWindowNotInitialized) {
		uc.logger.Debug("Window is not initialized, skipping tick")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to append reading: %w", err)
	}

	uc.logger.Debug("Reading appended",
		"timestamp", appended.Timestamp(),
		"power_kw", fmt.Sprintf("%.1f", appended.PowerKW()),
		"window", window.Len())

	// 2. Внутренние метрики
	if uc.metrics != nil {
		uc.metrics.ObserveTick(window.Len(), appended)
	}

	// 3. Выгружаем KPI во внешнее хранилище метрик
	if uc.metricsPublisher != nil {
		kpi := uc.aggregator.Aggregate(window, uc.state.Directives())
		if err := uc.metricsPublisher.PublishBatch(ctx, kpiData(kpi, appended)); err != nil {
			uc.logger.Warn("Failed to publish KPI metrics", "error", err.Error())
		}
	}

	// 4. Рассылаем снимок и событие
	uc.notifier.Changed(ctx, port.SubjectReadingAppended, map[string]interface{}{
		"timestamp":  appended.Timestamp(),
		"power_kw":   appended.PowerKW(),
		"efficiency": appended.Efficiency(),
		"temp":       appended.Temp(),
	})

	return nil
}

// kpiData конвертирует KPI и последнее показание в набор метрик
func kpiData(kpi service.KPISnapshot, latest entity.Reading) []port.MetricDatum {
	now := time.Now()
	return []port.MetricDatum{
		{Name: "current_power", Value: float64(kpi.CurrentPowerKW), Unit: "kW", Timestamp: now},
		{Name: "efficiency", Value: float64(kpi.EfficiencyPercent), Unit: "%", Timestamp: now},
		{Name: "daily_cost_projection", Value: kpi.DailyCostProjection, Unit: "count", Timestamp: now},
		{Name: "annual_projected_savings", Value: kpi.AnnualProjectedSavings, Unit: "count", Timestamp: now},
		{Name: "discharge_temp", Value: latest.Temp(), Unit: "C", Timestamp: now},
		{Name: "flow_rate", Value: latest.FlowRate(), Unit: "kg/s", Timestamp: now},
	}
}
