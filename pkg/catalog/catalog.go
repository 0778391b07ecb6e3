// Package catalog holds the capability ladder: the static, progressively
// harder level definitions the pipeline evaluates agents against. Levels are
// loaded once per process and never mutated.
package catalog

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/crucible/pkg/core"
	"github.com/XiaoConstantine/crucible/pkg/errors"
)

// Catalog is a read-only collection of capability levels.
type Catalog struct {
	levels []core.CapabilityLevel
	byID   map[string]int
}

// New builds a catalog from level definitions. Duplicate level ids are
// rejected; a catalog with ambiguous ids cannot attribute results correctly.
func New(levels ...core.CapabilityLevel) (*Catalog, error) {
	byID := make(map[string]int, len(levels))
	for i, l := range levels {
		if l.ID == "" {
			return nil, errors.New(errors.InvalidInput, "level id must not be empty")
		}
		if _, dup := byID[l.ID]; dup {
			return nil, errors.WithFields(
				errors.New(errors.InvalidInput, "duplicate level id"),
				errors.Fields{"level": l.ID})
		}
		byID[l.ID] = i
	}
	return &Catalog{levels: levels, byID: byID}, nil
}

// LoadFile reads level definitions from a YAML document.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to read catalog file"),
			errors.Fields{"path": path})
	}

	var doc struct {
		Levels []core.CapabilityLevel `yaml:"levels"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to parse catalog file")
	}
	return New(doc.Levels...)
}

// Levels returns a copy of the level list so callers cannot mutate the
// catalog after load.
func (c *Catalog) Levels() []core.CapabilityLevel {
	out := make([]core.CapabilityLevel, len(c.levels))
	copy(out, c.levels)
	return out
}

// Get returns the level with the given id.
func (c *Catalog) Get(id string) (core.CapabilityLevel, bool) {
	i, ok := c.byID[id]
	if !ok {
		return core.CapabilityLevel{}, false
	}
	return c.levels[i], true
}

// Len returns the number of levels.
func (c *Catalog) Len() int {
	return len(c.levels)
}

// Subset returns a catalog restricted to the requested level ids, preserving
// ladder order. Unknown ids are an error rather than silently skipped.
func (c *Catalog) Subset(ids []string) (*Catalog, error) {
	if len(ids) == 0 {
		return c, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := c.byID[id]; !ok {
			return nil, errors.WithFields(
				errors.New(errors.ResourceNotFound, "unknown level id"),
				errors.Fields{"level": id})
		}
		want[id] = true
	}

	var subset []core.CapabilityLevel
	for _, l := range c.levels {
		if want[l.ID] {
			subset = append(subset, l)
		}
	}
	return New(subset...)
}
