package main

import (
	"testing"

	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	"github.com/aratrikkk/UrjaBharat/pkg/config"
)

func TestBuildProfile_Defaults(t *testing.T) {
	profile, err := buildProfile(nil)
	if err != nil {
		t.Fatalf("buildProfile(nil) error = %v", err)
	}
	if profile != valueobject.DefaultGenerationProfile() {
		t.Errorf("expected default profile, got %+v", profile)
	}
}

func TestBuildProfile_Overrides(t *testing.T) {
	pressureIn := 1.2
	profile, err := buildProfile(&config.ProfileFile{
		PressureIn: &pressureIn,
		Anomalous: &config.RegimeSpec{
			PowerKW: &config.RangeSpec{Min: 700, Max: 750},
		},
	})
	if err != nil {
		t.Fatalf("buildProfile() error = %v", err)
	}

	if profile.PressureIn != 1.2 {
		t.Errorf("PressureIn = %v, want 1.2", profile.PressureIn)
	}
	if profile.Anomalous.PowerKW.Min != 700 || profile.Anomalous.PowerKW.Max != 750 {
		t.Errorf("anomalous power range = %+v", profile.Anomalous.PowerKW)
	}
	if profile.Anomalous.Temp != valueobject.DefaultGenerationProfile().Anomalous.Temp {
		t.Error("unset ranges must keep their defaults")
	}
}

func TestBuildProfile_Invalid(t *testing.T) {
	_, err := buildProfile(&config.ProfileFile{
		Normal: &config.RegimeSpec{
			Efficiency: &config.RangeSpec{Min: 0.9, Max: 1.4},
		},
	})
	if err == nil {
		t.Fatal("expected error for efficiency above 1")
	}
}

func TestBuildDirectives(t *testing.T) {
	directives, err := buildDirectives(config.DefaultDirectiveSeeds())
	if err != nil {
		t.Fatalf("buildDirectives() error = %v", err)
	}
	if len(directives) != 2 {
		t.Fatalf("expected 2 directives, got %d", len(directives))
	}
	if directives[0].Urgency() != valueobject.UrgencyHigh {
		t.Errorf("first directive urgency = %s", directives[0].Urgency())
	}
}

func TestBuildDirectives_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		seeds []config.DirectiveSeed
	}{
		{
			name: "duplicate id",
			seeds: []config.DirectiveSeed{
				{ID: "1", Title: "A", Urgency: "low"},
				{ID: "1", Title: "B", Urgency: "low"},
			},
		},
		{
			name:  "bad urgency",
			seeds: []config.DirectiveSeed{{ID: "1", Title: "A", Urgency: "urgent"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildDirectives(tt.seeds); err == nil {
				t.Error("expected error")
			}
		})
	}
}
