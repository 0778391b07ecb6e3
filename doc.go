// Package crucible is a capability-evaluation and self-improvement pipeline
// for memory-augmented LLM agents.
//
// Crucible runs an agent through a progressive ladder of capability levels,
// each executed in an isolated context with its own private memory store,
// grades the answers semantically with an LLM judge, classifies failures
// against a fixed error taxonomy, and can close the loop by proposing,
// applying and regression-gating improvements to the agent's own strategy.
//
// Key Components:
//
//   - Catalog: the built-in ten-level capability ladder plus support for
//     domain-specific ladders supplied by a LevelSource.
//
//   - Runner: per-level isolated execution. Each level gets a fresh run
//     context, teaching and testing phases, and optional subprocess
//     isolation so a crashing agent cannot take the evaluator down with it.
//
//   - Grader: median-of-N semantic grading with per-question rubrics, and
//     an advisory metacognition grader scoring calibration, sufficiency
//     awareness, information seeking and self-correction independently.
//
//   - Analyzer: rule-based failure classification; every failed question
//     receives exactly one tag from the error taxonomy.
//
//   - Coordinator: parallel execution of K independent runs with per-level
//     median aggregation across runs.
//
//   - Improve: the six-state self-improvement orchestrator with a
//     regression gate, dry-run mode and revert-on-crash semantics, driven
//     either by flags or a declarative recipe file.
//
// Example:
//
//	import (
//	    "context"
//
//	    "github.com/XiaoConstantine/crucible/pkg/catalog"
//	    "github.com/XiaoConstantine/crucible/pkg/config"
//	    "github.com/XiaoConstantine/crucible/pkg/coordinator"
//	    "github.com/XiaoConstantine/crucible/pkg/grader"
//	    "github.com/XiaoConstantine/crucible/pkg/judge"
//	)
//
//	func main() {
//	    cat := catalog.Builtin()
//	    j, _ := judge.New(config.JudgeConfig{Provider: "anthropic"})
//	    sem := grader.NewSemantic(j)
//	    pipeline := coordinator.NewPipeline(newRunner(), sem)
//	    set, _ := coordinator.New(pipeline, coordinator.WithRuns(3)).Run(context.Background(), cat, nil)
//	    _ = set
//	}
//
// See cmd/crucible for the full command-line entry point, including the
// improvement loop and domain harness modes.
package crucible
