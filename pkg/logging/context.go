package logging

import "context"

type contextKey int

const (
	runIDKey contextKey = iota
	levelIDKey
)

// WithRunID binds an evaluation run identifier to the context so every log
// entry emitted below it can be attributed to the run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the run identifier from the context.
func GetRunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok
}

// WithLevelID binds a capability level identifier to the context.
func WithLevelID(ctx context.Context, levelID string) context.Context {
	return context.WithValue(ctx, levelIDKey, levelID)
}

// GetLevelID retrieves the capability level identifier from the context.
func GetLevelID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(levelIDKey).(string)
	return id, ok
}
