package logging

// LogEntry represents a structured log record with fields relevant to
// evaluation runs.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Pipeline-specific fields
	RunID   string // The evaluation run this entry belongs to
	LevelID string // The capability level being executed

	// General structured data
	Fields map[string]interface{}
}
