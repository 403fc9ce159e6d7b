package usecase

import (
	"context"
	"testing"

	"github.com/aratrikkk/UrjaBharat/internal/application/state"
)

func TestGetConsoleSnapshotUseCase_Execute(t *testing.T) {
	f := newFixture(t, 24, state.Options{})

	snap := f.snapshots.Execute(context.Background())

	if len(snap.Telemetry) != 24 || snap.Telemetry[0].Timestamp != "0:00" {
		t.Fatalf("unexpected telemetry: %d entries", len(snap.Telemetry))
	}
	if snap.AnomalyActive || snap.Regime != "normal" {
		t.Errorf("unexpected regime %q", snap.Regime)
	}
	if len(snap.Directives) != 2 {
		t.Errorf("expected 2 directives, got %d", len(snap.Directives))
	}
	if snap.KPI.AnnualProjectedSavings != (340+85)*365 {
		t.Errorf("AnnualProjectedSavings = %v", snap.KPI.AnnualProjectedSavings)
	}
	if snap.KPI.AnnualSavingsLocal != snap.KPI.AnnualProjectedSavings*83 {
		t.Errorf("AnnualSavingsLocal = %v", snap.KPI.AnnualSavingsLocal)
	}
	if snap.KPI.CurrentPowerKW < 410 || snap.KPI.CurrentPowerKW > 455 {
		t.Errorf("CurrentPowerKW = %d out of normal range", snap.KPI.CurrentPowerKW)
	}
	if snap.Analysis != nil || snap.Diagnostic != nil || snap.Handover != nil {
		t.Error("results must be empty initially")
	}
}

func TestGetConsoleSnapshotUseCase_KPIMemoized(t *testing.T) {
	f := newFixture(t, 24, state.Options{})

	first := f.snapshots.KPI(context.Background())
	if second := f.snapshots.KPI(context.Background()); second != first {
		t.Fatalf("KPI() not stable: %+v vs %+v", second, first)
	}

	f.directives().Execute(context.Background(), "1")
	after := f.snapshots.KPI(context.Background())
	if after.AnnualProjectedSavings == first.AnnualProjectedSavings {
		t.Error("KPI must be recomputed after the directive set changes")
	}
}

func TestGetConsoleSnapshotUseCase_Assets(t *testing.T) {
	f := newFixture(t, 24, state.Options{})

	normal := f.snapshots.Assets(context.Background())
	if len(normal) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(normal))
	}

	var total float64
	for _, a := range normal {
		total += a.PowerKW
		if a.Health < 92 || a.Health > 97 || a.Status != "nominal" {
			t.Errorf("unexpected normal asset %+v", a)
		}
	}
	latest, _ := f.state.Window().Latest()
	if diff := total - latest.PowerKW(); diff > 1e-9 || diff < -1e-9 {
		t.Errorf("unit power must add up to the latest reading: %v vs %v", total, latest.PowerKW())
	}

	_ = f.anomaly().Activate(context.Background())
	f.wait(t)
	for _, a := range f.snapshots.Assets(context.Background()) {
		if a.Health < 60 || a.Health > 70 || a.Status != "degraded" {
			t.Errorf("unexpected degraded asset %+v", a)
		}
	}
}
