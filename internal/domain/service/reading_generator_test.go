package service

import (
	"testing"

	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
)

// fixedSource возвращает значения по кругу
type fixedSource struct {
	values []float64
	i      int
}

func (s *fixedSource) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func newTestGenerator(t *testing.T, rnd RandomSource) *ReadingGenerator {
	t.Helper()
	g, err := NewReadingGenerator(valueobject.DefaultGenerationProfile(), rnd)
	if err != nil {
		t.Fatalf("NewReadingGenerator() error = %v", err)
	}
	return g
}

func TestReadingGenerator_RangesByRegime(t *testing.T) {
	g := newTestGenerator(t, nil)
	profile := valueobject.DefaultGenerationProfile()

	for _, regime := range []valueobject.Regime{valueobject.RegimeNormal, valueobject.RegimeAnomalous} {
		p := profile.For(regime)
		for i := 0; i < 500; i++ {
			r := g.Generate("0:00", regime)

			if !p.PowerKW.Contains(r.PowerKW()) {
				t.Fatalf("%s power %v out of range", regime, r.PowerKW())
			}
			if !p.FlowRate.Contains(r.FlowRate()) {
				t.Fatalf("%s flow %v out of range", regime, r.FlowRate())
			}
			if !p.PressureOut.Contains(r.PressureOut()) {
				t.Fatalf("%s pressureOut %v out of range", regime, r.PressureOut())
			}
			if !p.Efficiency.Contains(r.Efficiency()) {
				t.Fatalf("%s efficiency %v out of range", regime, r.Efficiency())
			}
			if !p.Temp.Contains(r.Temp()) {
				t.Fatalf("%s temp %v out of range", regime, r.Temp())
			}
			if r.PressureIn() != 1.0 {
				t.Fatalf("pressureIn = %v, want 1.0", r.PressureIn())
			}
		}
	}
}

func TestReadingGenerator_AnomalousThresholds(t *testing.T) {
	g := newTestGenerator(t, nil)

	for i := 0; i < 5; i++ {
		r := g.Generate("12:00", valueobject.RegimeAnomalous)
		if r.PowerKW() < 580 || r.Efficiency() > 0.70 {
			t.Fatalf("anomalous reading out of bounds: power=%v eff=%v", r.PowerKW(), r.Efficiency())
		}
	}

	if r := g.Generate("12:05", valueobject.RegimeNormal); r.PowerKW() >= 500 {
		t.Fatalf("normal reading power = %v, want < 500", r.PowerKW())
	}
}

func TestReadingGenerator_DeterministicSource(t *testing.T) {
	g := newTestGenerator(t, &fixedSource{values: []float64{0}})

	r := g.Generate("3:00", valueobject.RegimeNormal)
	if r.Timestamp() != "3:00" {
		t.Errorf("Timestamp() = %q", r.Timestamp())
	}
	if r.PowerKW() != 410 || r.FlowRate() != 165 || r.Efficiency() != 0.85 {
		t.Errorf("unexpected lower-bound reading: %+v", r)
	}
}

func TestReadingGenerator_Seed(t *testing.T) {
	g := newTestGenerator(t, nil)

	w, err := g.Seed(24, 24)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if w.Len() != 24 {
		t.Fatalf("Len() = %d, want 24", w.Len())
	}

	readings := w.Readings()
	if readings[0].Timestamp() != "0:00" || readings[23].Timestamp() != "23:00" {
		t.Errorf("unexpected seed labels %q..%q", readings[0].Timestamp(), readings[23].Timestamp())
	}
	for _, r := range readings {
		if r.PowerKW() >= 455 {
			t.Fatalf("seed readings must be normal, power = %v", r.PowerKW())
		}
	}
}

func TestNewReadingGenerator_InvalidProfile(t *testing.T) {
	p := valueobject.DefaultGenerationProfile()
	p.Normal.Temp = valueobject.ValueRange{Min: 30, Max: 20}

	if _, err := NewReadingGenerator(p, nil); err == nil {
		t.Fatal("expected error for invalid profile")
	}
}
