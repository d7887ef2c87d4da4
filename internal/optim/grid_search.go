// Package optim searches controller gains by simulating every candidate.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/san-kum/modrob/internal/config"
	"github.com/san-kum/modrob/internal/control"
	"github.com/san-kum/modrob/internal/experiment"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyGrid     = errors.New("gain grid has an empty axis")
	ErrNoStableGains = errors.New("no candidate finished its run")
)

// Candidate is one evaluated point of the grid. Score is +Inf when the run
// stopped early.
type Candidate struct {
	Gains control.Gains
	Score float64
	Err   error
}

// GridSearch tries every combination of the listed gains and keeps the one
// with the smallest value of Metric.
type GridSearch struct {
	Kp, Ki, Kd []float64
	Metric     string
	// Workers bounds the number of concurrent runs, GOMAXPROCS when zero.
	Workers int
}

func NewGridSearch(kp, ki, kd []float64, metric string) *GridSearch {
	return &GridSearch{Kp: kp, Ki: ki, Kd: kd, Metric: metric}
}

// Candidates lists the grid in Kp, Ki, Kd order with Kd varying fastest.
func (g *GridSearch) Candidates() ([]control.Gains, error) {
	if len(g.Kp) == 0 || len(g.Ki) == 0 || len(g.Kd) == 0 {
		return nil, ErrEmptyGrid
	}
	out := make([]control.Gains, 0, len(g.Kp)*len(g.Ki)*len(g.Kd))
	for _, kp := range g.Kp {
		for _, ki := range g.Ki {
			for _, kd := range g.Kd {
				out = append(out, control.Gains{Kp: kp, Ki: ki, Kd: kd})
			}
		}
	}
	return out, nil
}

// Builder returns a constructor that runs base with the candidate gains.
func Builder(base *config.Config, reg *experiment.Registry) func(control.Gains) (*experiment.Experiment, error) {
	return func(gains control.Gains) (*experiment.Experiment, error) {
		cfg := *base
		cfg.Gains = gains
		return experiment.New(&cfg, reg, nil)
	}
}

// Search evaluates every candidate and returns the best one along with all
// of them in grid order. Only cancellation and build failures abort the
// search.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(control.Gains) (*experiment.Experiment, error),
) (Candidate, []Candidate, error) {
	grid, err := g.Candidates()
	if err != nil {
		return Candidate{}, nil, err
	}
	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Candidate, len(grid))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, gains := range grid {
		i, gains := i, gains
		eg.Go(func() error {
			c, err := g.evaluate(ctx, build, gains)
			results[i] = c
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return Candidate{}, results, err
	}

	best := Candidate{Score: math.Inf(1)}
	for _, c := range results {
		if c.Score < best.Score {
			best = c
		}
	}
	if math.IsInf(best.Score, 1) {
		return best, results, ErrNoStableGains
	}
	return best, results, nil
}

func (g *GridSearch) evaluate(
	ctx context.Context,
	build func(control.Gains) (*experiment.Experiment, error),
	gains control.Gains,
) (Candidate, error) {
	c := Candidate{Gains: gains, Score: math.Inf(1)}
	exp, err := build(gains)
	if err != nil {
		return c, fmt.Errorf("gains %+v: %w", gains, err)
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return c, err
	}
	if c.Err = result.Err(); c.Err != nil {
		return c, nil
	}
	v, ok := result.Metrics[g.Metric]
	if !ok {
		return c, fmt.Errorf("metric %q not recorded", g.Metric)
	}
	if !math.IsNaN(v) {
		c.Score = v
	}
	return c, nil
}
