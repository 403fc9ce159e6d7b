package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/aratrikkk/UrjaBharat/internal/application/state"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
)

func TestManageDirectivesUseCase_ExecuteIdempotent(t *testing.T) {
	f := newFixture(t, 24, state.Options{})
	uc := f.directives()

	before := f.snapshots.KPI(context.Background()).AnnualProjectedSavings

	if !uc.Execute(context.Background(), "1") {
		t.Fatal("first execution must remove the directive")
	}
	if uc.Execute(context.Background(), "1") {
		t.Fatal("second execution must be a no-op")
	}
	if uc.Execute(context.Background(), "does-not-exist") {
		t.Fatal("unknown id must be a no-op")
	}

	list := uc.List(context.Background())
	if len(list) != 1 || list[0].ID != "2" {
		t.Fatalf("unexpected directives: %+v", list)
	}

	after := f.snapshots.KPI(context.Background()).AnnualProjectedSavings
	if after != 85*365 || after >= before {
		t.Errorf("annual savings %v -> %v", before, after)
	}
}

func TestManageDirectivesUseCase_Explain(t *testing.T) {
	f := newFixture(t, 24, state.Options{})
	f.narrator.reply = "briefing"
	uc := f.directives()

	requestID, err := uc.Explain(context.Background(), "2")
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if requestID == "" {
		t.Fatal("expected request id")
	}
	f.wait(t)

	calls := f.narrator.calls("explain")
	if len(calls) != 1 || calls[0] != "Stage 2 intercooler fouling.|Plant A-4" {
		t.Fatalf("unexpected explainer input: %v", calls)
	}

	got, ok := f.state.Explanation("2")
	if !ok || got.Text() != "briefing" || got.RequestID() != requestID {
		t.Fatalf("unexpected explanation: %+v", got)
	}

	uc.Execute(context.Background(), "2")
	if _, ok := f.state.Explanation("2"); ok {
		t.Error("explanation must be dropped with its directive")
	}
}

func TestManageDirectivesUseCase_ExplainUnknown(t *testing.T) {
	f := newFixture(t, 24, state.Options{})

	if _, err := f.directives().Explain(context.Background(), "nope"); !errors.Is(err, entity.ErrDirectiveNotFound) {
		t.Fatalf("expected ErrDirectiveNotFound, got %v", err)
	}
}

func TestManageDirectivesUseCase_ExplainFallback(t *testing.T) {
	f := newFixture(t, 24, state.Options{})
	f.narrator.err = errNarratorDown

	if _, err := f.directives().Explain(context.Background(), "1"); err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	f.wait(t)

	if got, _ := f.state.Explanation("1"); got.Text() != FallbackExplanation {
		t.Errorf("Text() = %q, want fallback", got.Text())
	}
}
