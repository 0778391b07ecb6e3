package improve

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/crucible/pkg/errors"
)

// Recipe is an externally authored YAML document sequencing the loop's
// states. Recipes cannot reorder states - the loop order is an invariant -
// but they select how far an iteration goes and which levels it covers.
type Recipe struct {
	Name       string   `yaml:"name"`
	Steps      []string `yaml:"steps"`
	Iterations int      `yaml:"iterations,omitempty"`
	Levels     []string `yaml:"levels,omitempty"`
}

var canonicalSteps = []string{"eval", "analyze", "research", "improve", "re-eval", "decide"}

// DryRun reports whether the recipe stops before IMPROVE.
func (r *Recipe) DryRun() bool {
	for _, s := range r.Steps {
		if s == "improve" {
			return false
		}
	}
	return true
}

// LoadRecipe reads and validates a recipe file. Steps must be a prefix of
// the canonical state order: a recipe that skips EVAL or runs DECIDE before
// RE-EVAL is rejected.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to read recipe"),
			errors.Fields{"path": path})
	}

	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to parse recipe")
	}

	if len(r.Steps) == 0 {
		return nil, errors.New(errors.InvalidInput, "recipe has no steps")
	}
	if len(r.Steps) > len(canonicalSteps) {
		return nil, errors.New(errors.InvalidInput, "recipe has more steps than the loop defines")
	}
	for i, s := range r.Steps {
		if s != canonicalSteps[i] {
			return nil, errors.WithFields(
				errors.New(errors.InvalidInput, "recipe steps must be a prefix of eval, analyze, research, improve, re-eval, decide"),
				errors.Fields{"position": i, "step": s})
		}
	}

	if r.Iterations <= 0 {
		r.Iterations = 1
	}
	return &r, nil
}
