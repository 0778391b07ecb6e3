package judge

import (
	"github.com/XiaoConstantine/crucible/pkg/config"
	"github.com/XiaoConstantine/crucible/pkg/core"
	errs "github.com/XiaoConstantine/crucible/pkg/errors"
)

// New constructs the judge named by the configuration.
func New(cfg config.JudgeConfig) (core.Judge, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicJudge(cfg.APIKey, cfg.ModelID, cfg.MaxTokens)
	case "mock":
		return NewMockJudge(), nil
	default:
		return nil, errs.WithFields(
			errs.New(errs.InvalidInput, "unsupported judge provider"),
			errs.Fields{"provider": cfg.Provider})
	}
}
