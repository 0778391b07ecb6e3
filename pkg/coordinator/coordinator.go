package coordinator

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/XiaoConstantine/crucible/pkg/catalog"
	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
	"github.com/XiaoConstantine/crucible/pkg/logging"
)

// Coordinator executes the full catalog K independent times. Single runs
// against a stochastic agent are not reproducible enough to drive automated
// decisions; the median across runs is.
type Coordinator struct {
	pipeline   *Pipeline
	runs       int
	maxWorkers int
	logger     *logging.Logger
}

// CoordinatorOption defines functional options for the coordinator.
type CoordinatorOption func(*Coordinator)

// WithRuns sets the number of independent runs (K).
func WithRuns(k int) CoordinatorOption {
	return func(c *Coordinator) {
		if k > 0 {
			c.runs = k
		}
	}
}

// WithMaxWorkers bounds how many runs execute concurrently.
func WithMaxWorkers(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// New creates a coordinator around a pipeline.
func New(p *Pipeline, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		pipeline:   p,
		runs:       3,
		maxWorkers: 3,
		logger:     logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LevelAggregate is the stabilized score for one level across all runs.
type LevelAggregate struct {
	LevelID string `json:"level_id"`

	// Median across the non-fatal run samples.
	Median float64 `json:"median"`

	// RawScores holds each run's score for variance inspection, in run
	// order; fatal runs are omitted here but counted below.
	RawScores []float64 `json:"raw_scores"`

	// FatalRuns counts runs where this level crashed or timed out. Fatal
	// runs are excluded from the success statistic but never hidden.
	FatalRuns int `json:"fatal_runs"`
}

// RunSet is the complete outcome of a coordinated evaluation.
type RunSet struct {
	Runs       [][]core.LevelResult      `json:"runs"`
	Aggregates map[string]LevelAggregate `json:"aggregates"`
}

// Scores reduces the run set to a per-level score map for gate comparisons.
func (rs *RunSet) Scores() map[string]float64 {
	scores := make(map[string]float64, len(rs.Aggregates))
	for id, agg := range rs.Aggregates {
		scores[id] = agg.Median
	}
	return scores
}

// Run executes the catalog (or subset) K times and reduces per-level scores
// to their median.
func (c *Coordinator) Run(ctx context.Context, cat *catalog.Catalog, levelIDs []string) (*RunSet, error) {
	subset, err := cat.Subset(levelIDs)
	if err != nil {
		return nil, err
	}

	c.logger.Info(ctx, "coordinating %d runs over %d levels", c.runs, subset.Len())

	allRuns := make([][]core.LevelResult, c.runs)

	// Each run is fully isolated from its siblings, so runs may execute
	// concurrently; levels within a run stay sequential.
	p := pool.New().WithMaxGoroutines(c.maxWorkers).WithErrors()
	for k := 0; k < c.runs; k++ {
		k := k
		p.Go(func() error {
			runID := fmt.Sprintf("run-%d", k+1)
			results, err := c.pipeline.RunOnce(ctx, subset, runID)
			if err != nil {
				return errors.WithFields(
					errors.Wrap(err, errors.Canceled, "run aborted"),
					errors.Fields{"run": runID})
			}
			allRuns[k] = results
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return &RunSet{
		Runs:       allRuns,
		Aggregates: aggregate(subset, allRuns),
	}, nil
}

func aggregate(cat *catalog.Catalog, runs [][]core.LevelResult) map[string]LevelAggregate {
	aggs := make(map[string]LevelAggregate, cat.Len())

	for _, level := range cat.Levels() {
		agg := LevelAggregate{LevelID: level.ID}
		for _, run := range runs {
			for _, lr := range run {
				if lr.LevelID != level.ID {
					continue
				}
				if lr.Fatal {
					agg.FatalRuns++
				} else {
					agg.RawScores = append(agg.RawScores, lr.Score())
				}
			}
		}
		agg.Median = core.Median(agg.RawScores)
		aggs[level.ID] = agg
	}
	return aggs
}
