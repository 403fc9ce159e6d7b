package valueobject

import (
	"errors"
	"testing"
)

func TestNextTimeLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected string
	}{
		{"seed label", "23:00", "23:05"},
		{"unpadded hour", "0:00", "00:05"},
		{"mid hour", "12:30", "12:35"},
		{"minute wrap", "7:55", "08:00"},
		{"hour wrap", "23:55", "00:00"},
		{"padded input", "09:10", "09:15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextTimeLabel(tt.label)
			if err != nil {
				t.Fatalf("NextTimeLabel(%q) error = %v", tt.label, err)
			}
			if got != tt.expected {
				t.Errorf("NextTimeLabel(%q) = %q, want %q", tt.label, got, tt.expected)
			}
		})
	}
}

func TestNextTimeLabel_Invalid(t *testing.T) {
	for _, label := range []string{"", "12", "ab:cd", "1:2:3", "-1:00"} {
		if _, err := NextTimeLabel(label); !errors.Is(err, ErrInvalidTimeLabel) {
			t.Errorf("NextTimeLabel(%q) error = %v, want ErrInvalidTimeLabel", label, err)
		}
	}
}

func TestSeedTimeLabel(t *testing.T) {
	if got := SeedTimeLabel(0); got != "0:00" {
		t.Errorf("SeedTimeLabel(0) = %q", got)
	}
	if got := SeedTimeLabel(23); got != "23:00" {
		t.Errorf("SeedTimeLabel(23) = %q", got)
	}
}
