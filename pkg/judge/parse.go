package judge

import (
	"encoding/json"
	"strings"

	"github.com/XiaoConstantine/crucible/pkg/core"
	errs "github.com/XiaoConstantine/crucible/pkg/errors"
)

// ParseJudgment extracts the structured verdict from a judge response.
// Judges wrap JSON in prose or code fences often enough that we scan for the
// outermost object instead of unmarshaling the raw text. Any failure here is
// a JudgeMalformedResponse, which the grader treats as retryable.
func ParseJudgment(response string) (core.Judgment, error) {
	raw := extractJSONObject(response)
	if raw == "" {
		return core.Judgment{}, errs.WithFields(
			errs.New(errs.JudgeMalformedResponse, "no JSON object in judge response"),
			errs.Fields{"response": truncate(response, 200)})
	}

	var j core.Judgment
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return core.Judgment{}, errs.WithFields(
			errs.Wrap(err, errs.JudgeMalformedResponse, "failed to parse judge response"),
			errs.Fields{"response": truncate(raw, 200)})
	}

	if j.Score < 0 || j.Score > 1 {
		return core.Judgment{}, errs.WithFields(
			errs.New(errs.JudgeMalformedResponse, "judge score outside [0,1]"),
			errs.Fields{"score": j.Score})
	}

	return j, nil
}

// extractJSONObject returns the first balanced top-level JSON object in s.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
