// Command crucible runs the agent capability evaluation pipeline: the
// progressive ladder, the parallel run coordinator, and the closed-loop
// self-improvement orchestrator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/XiaoConstantine/crucible/pkg/analyzer"
	"github.com/XiaoConstantine/crucible/pkg/catalog"
	"github.com/XiaoConstantine/crucible/pkg/config"
	"github.com/XiaoConstantine/crucible/pkg/coordinator"
	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/grader"
	"github.com/XiaoConstantine/crucible/pkg/improve"
	"github.com/XiaoConstantine/crucible/pkg/judge"
	"github.com/XiaoConstantine/crucible/pkg/logging"
	"github.com/XiaoConstantine/crucible/pkg/report"
	"github.com/XiaoConstantine/crucible/pkg/runner"
)

func main() {
	// Worker mode: this binary re-executes itself to give each level a real
	// process boundary.
	if len(os.Args) > 1 && os.Args[1] == runner.WorkerFlag {
		if err := runner.RunWorker(context.Background(), buildFactory(), os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var (
		configPath  = flag.String("config", "", "path to YAML configuration")
		catalogPath = flag.String("catalog", "", "path to a YAML level catalog (default: builtin ladder)")
		levels      = flag.String("levels", "", "comma-separated level id subset")
		runs        = flag.Int("runs", 0, "override the number of independent runs")
		improveLoop = flag.Bool("improve", false, "run the self-improvement loop instead of a single evaluation")
		dryRun      = flag.Bool("dry-run", false, "improvement loop: stop after RESEARCH, report the hypothesis")
		iterations  = flag.Int("iterations", 0, "override the improvement loop iteration bound")
		agentState  = flag.String("agent-state", "", "path to the agent state file the improvement loop may mutate")
		recipePath  = flag.String("recipe", "", "path to a YAML recipe driving the improvement loop")
	)
	flag.Parse()

	if err := run(*configPath, *catalogPath, *levels, *runs, *improveLoop, *dryRun, *iterations, *agentState, *recipePath); err != nil {
		fmt.Fprintf(os.Stderr, "crucible: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, catalogPath, levelList string, runs int, improveLoop, dryRun bool, iterations int, agentState, recipePath string) error {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	setupLogging(cfg.Logging)
	logger := logging.GetLogger()

	cat := catalog.Builtin()
	if catalogPath != "" {
		loaded, err := catalog.LoadFile(catalogPath)
		if err != nil {
			return err
		}
		cat = loaded
	}

	var levelIDs []string
	if levelList != "" {
		levelIDs = strings.Split(levelList, ",")
	}
	if runs > 0 {
		cfg.Coordinator.Runs = runs
	}
	if iterations > 0 {
		cfg.Improve.MaxIterations = iterations
	}
	if dryRun {
		cfg.Improve.DryRun = true
	}

	// A recipe drives the improvement loop: its step prefix decides how far
	// each iteration goes, and it may narrow the level set.
	if recipePath != "" {
		recipe, err := improve.LoadRecipe(recipePath)
		if err != nil {
			return err
		}
		improveLoop = true
		cfg.Improve.MaxIterations = recipe.Iterations
		if recipe.DryRun() {
			cfg.Improve.DryRun = true
		}
		if len(recipe.Levels) > 0 {
			levelIDs = recipe.Levels
		}
	}

	j, err := judge.New(cfg.Judge)
	if err != nil {
		return err
	}

	sem := grader.NewSemantic(j,
		grader.WithSamples(cfg.Grading.Samples),
		grader.WithJudgeRetries(cfg.Grading.JudgeRetries),
	)

	workDir := cfg.Runner.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "crucible-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(workDir)
	}

	r := runner.New(buildFactory(),
		runner.WithWorkDir(workDir),
		runner.WithTimeout(cfg.Runner.LevelTimeout),
		runner.WithMaxDialogueTurns(cfg.Runner.MaxDialogueTurns),
	)

	pipeline := coordinator.NewPipeline(r, sem,
		coordinator.WithSubprocessIsolation(true),
		coordinator.WithMetacognition(grader.NewMetacognition(j)),
	)
	coord := coordinator.New(pipeline,
		coordinator.WithRuns(cfg.Coordinator.Runs),
		coordinator.WithMaxWorkers(cfg.Coordinator.MaxWorkers),
	)
	an := analyzer.New(cfg.Grading.SuccessThreshold)

	// The loop honors cancellation between iterations; a single evaluation
	// honors it between levels.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub, err := cat.Subset(levelIDs)
	if err != nil {
		return err
	}

	if improveLoop {
		return runImprovementLoop(ctx, cfg, sub, coord, an, agentState)
	}

	rs, err := coord.Run(ctx, sub, nil)
	if err != nil {
		return err
	}

	failures := analyzeAll(an, rs)
	rep := report.FromRunSet(rs, cfg.Grading.SuccessThreshold, failures)
	if err := rep.WriteJSON(os.Stdout); err != nil {
		return err
	}

	if !rep.Pass {
		logger.Warn(ctx, "evaluation below threshold")
		os.Exit(2)
	}
	return nil
}

func runImprovementLoop(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, coord *coordinator.Coordinator, an *analyzer.Analyzer, agentState string) error {
	if agentState == "" && !cfg.Improve.DryRun {
		return fmt.Errorf("the improvement loop needs -agent-state to know what it may mutate")
	}

	var applier improve.ChangeApplier = &improve.FileApplier{Path: agentState}
	orch := improve.NewOrchestrator(coord, an, &improve.TaxonomyResearcher{}, applier, cat,
		improve.WithTolerance(cfg.Improve.Tolerance),
		improve.WithMaxIterations(cfg.Improve.MaxIterations),
		improve.WithDryRun(cfg.Improve.DryRun),
	)

	history, err := orch.Loop(ctx)
	for _, iter := range history {
		fmt.Printf("iteration %d: decision=%s no_op=%v verdict=%s\n",
			iter.Index, iter.Decision, iter.NoOp, iter.GateVerdict)
		if iter.Hypothesis != nil {
			fmt.Printf("  hypothesis: %s\n  evidence: %s\n  counter: %s\n",
				iter.Hypothesis.Statement, iter.Hypothesis.Evidence, iter.Hypothesis.CounterArgument)
		}
	}
	return err
}

func analyzeAll(an *analyzer.Analyzer, rs *coordinator.RunSet) []core.FailureRecord {
	var all []core.LevelResult
	for _, run := range rs.Runs {
		all = append(all, run...)
	}
	return an.Analyze(all)
}

func setupLogging(cfg config.LoggingConfig) {
	outputs := []logging.Output{logging.NewConsoleOutput(true)}
	if cfg.File != "" {
		if f, err := logging.NewFileOutput(cfg.File); err == nil {
			outputs = append(outputs, f)
		}
	}
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Level),
		Outputs:  outputs,
	}))
}
