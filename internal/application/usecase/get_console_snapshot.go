package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/domain/service"
)

// Имена агрегатов и их доли в общей нагрузке
var assetLayout = []struct {
	name          string
	share         float64
	health        int
	degradedDelta int
}{
	{name: "Compressor #1", share: 0.34, health: 96, degradedDelta: 29},
	{name: "Compressor #2", share: 0.32, health: 92, degradedDelta: 30},
	{name: "Compressor #3", share: 0.34, health: 94, degradedDelta: 28},
}

// GetConsoleSnapshotUseCase строит снимки консоли для чтения
// KPI пересчитываются только при изменении окна или набора директив
type GetConsoleSnapshotUseCase struct {
	state        *state.ConsoleState
	aggregator   *service.KPIAggregator
	currencyRate float64

	mu                sync.Mutex
	memoValid         bool
	memoWindowVer     uint64
	memoDirectivesVer uint64
	memoKPI           service.KPISnapshot
}

// NewGetConsoleSnapshotUseCase создает новый use case
func NewGetConsoleSnapshotUseCase(
	state *state.ConsoleState,
	aggregator *service.KPIAggregator,
	currencyRate float64,
) *GetConsoleSnapshotUseCase {
	return &GetConsoleSnapshotUseCase{
		state:        state,
		aggregator:   aggregator,
		currencyRate: currencyRate,
	}
}

// Execute возвращает полный снимок консоли
func (uc *GetConsoleSnapshotUseCase) Execute(_ context.Context) *dto.ConsoleSnapshotDTO {
	snap := uc.state.Snapshot()
	kpi := uc.kpiFor(snap)

	out := &dto.ConsoleSnapshotDTO{
		Timestamp:     time.Now(),
		Version:       snap.Version,
		AnomalyActive: snap.Regime.IsAnomalous(),
		Regime:        snap.Regime.String(),
		Telemetry:     dto.ToReadingDTOs(snap.Window.Readings()),
		KPI:           dto.NewKPIDTO(kpi, uc.currencyRate),
		Directives:    dto.ToDirectiveDTOs(snap.Directives),
		Analysis:      dto.FromNarrative(snap.Analysis),
		Diagnostic:    dto.FromNarrative(snap.Diagnostic),
		Handover:      dto.FromNarrative(snap.Handover),
		InFlight: dto.InFlightDTO{
			Analysis:    snap.InFlight[state.SlotAnalysis],
			Diagnostic:  snap.InFlight[state.SlotDiagnostic],
			Handover:    snap.InFlight[state.SlotHandover],
			Explanation: snap.InFlight[state.SlotExplanation],
		},
	}

	if len(snap.Explanations) > 0 {
		out.Explanations = make(map[string]dto.NarrativeDTO, len(snap.Explanations))
		for id, n := range snap.Explanations {
			n := n
			out.Explanations[id] = *dto.FromNarrative(&n)
		}
	}

	return out
}

// KPI возвращает текущие KPI
func (uc *GetConsoleSnapshotUseCase) KPI(_ context.Context) dto.KPIDTO {
	return dto.NewKPIDTO(uc.kpiFor(uc.state.Snapshot()), uc.currencyRate)
}

// Telemetry возвращает окно показаний
func (uc *GetConsoleSnapshotUseCase) Telemetry(_ context.Context) []dto.ReadingDTO {
	return dto.ToReadingDTOs(uc.state.Window().Readings())
}

// Assets разбивает текущую нагрузку по компрессорным агрегатам
// В аномальном режиме показатель здоровья снижается
func (uc *GetConsoleSnapshotUseCase) Assets(_ context.Context) []dto.AssetDTO {
	snap := uc.state.Snapshot()
	latest, ok := snap.Window.Latest()

	assets := make([]dto.AssetDTO, 0, len(assetLayout))
	for _, a := range assetLayout {
		asset := dto.AssetDTO{
			Name:   a.name,
			Health: a.health,
			Status: "nominal",
		}
		if ok {
			asset.PowerKW = latest.PowerKW() * a.share
		}
		if snap.Regime.IsAnomalous() {
			asset.Health -= a.degradedDelta
			asset.Status = "degraded"
		}
		assets = append(assets, asset)
	}

	return assets
}

func (uc *GetConsoleSnapshotUseCase) kpiFor(snap state.Snapshot) service.KPISnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.memoValid &&
		uc.memoWindowVer == snap.WindowVersion &&
		uc.memoDirectivesVer == snap.DirectivesVersion {
		return uc.memoKPI
	}

	uc.memoKPI = uc.aggregator.Aggregate(snap.Window, snap.Directives)
	uc.memoWindowVer = snap.WindowVersion
	uc.memoDirectivesVer = snap.DirectivesVersion
	uc.memoValid = true

	return uc.memoKPI
}
