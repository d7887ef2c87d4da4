package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/modrob/internal/config"
	"github.com/san-kum/modrob/internal/control"
	"github.com/san-kum/modrob/internal/experiment"
)

func TestCandidates(t *testing.T) {
	g := NewGridSearch([]float64{1, 2}, []float64{0}, []float64{3, 4}, "tracking_error")
	got, err := g.Candidates()
	if err != nil {
		t.Fatal(err)
	}
	want := []control.Gains{
		{Kp: 1, Ki: 0, Kd: 3},
		{Kp: 1, Ki: 0, Kd: 4},
		{Kp: 2, Ki: 0, Kd: 3},
		{Kp: 2, Ki: 0, Kd: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	g.Ki = nil
	if _, err := g.Candidates(); !errors.Is(err, ErrEmptyGrid) {
		t.Errorf("expected ErrEmptyGrid, got %v", err)
	}
}

func shortRun(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Duration = 0.5
	cfg.Reference.Tf = 0.5
	return cfg
}

func TestSearch(t *testing.T) {
	cfg := shortRun(t)
	g := NewGridSearch([]float64{5, 20}, []float64{10}, []float64{2, 18}, "tracking_error")
	g.Workers = 2

	best, all, err := g.Search(context.Background(), Builder(cfg, experiment.NewRegistry()))
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(all))
	}
	grid, _ := g.Candidates()
	for i, c := range all {
		if c.Gains != grid[i] {
			t.Errorf("candidate %d has gains %+v, want %+v", i, c.Gains, grid[i])
		}
		if c.Score < best.Score {
			t.Errorf("candidate %+v scored %v below best %v", c.Gains, c.Score, best.Score)
		}
	}
	if math.IsInf(best.Score, 1) || best.Score < 0 {
		t.Errorf("unexpected best score %v", best.Score)
	}
	if cfg.Gains != (control.Gains{Kp: config.DefaultKp, Ki: config.DefaultKi, Kd: config.DefaultKd}) {
		t.Error("search modified the base config")
	}
}

func TestSearchUnknownMetric(t *testing.T) {
	g := NewGridSearch([]float64{20}, []float64{10}, []float64{18}, "no_such_metric")
	_, _, err := g.Search(context.Background(), Builder(shortRun(t), experiment.NewRegistry()))
	if err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGridSearch([]float64{20}, []float64{10}, []float64{18}, "tracking_error")
	_, _, err := g.Search(ctx, Builder(shortRun(t), experiment.NewRegistry()))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
