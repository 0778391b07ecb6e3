package judge

import (
	stderrors "errors"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/crucible/pkg/core"
	errs "github.com/XiaoConstantine/crucible/pkg/errors"
)

func TestParseJudgment(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     core.Judgment
		wantErr  bool
	}{
		{
			name:     "clean JSON",
			response: `{"score": 0.85, "rationale": "mostly right"}`,
			want:     core.Judgment{Score: 0.85, Rationale: "mostly right"},
		},
		{
			name:     "JSON wrapped in prose",
			response: "Here is my assessment:\n```json\n{\"score\": 0.5, \"rationale\": \"partial\"}\n```\nDone.",
			want:     core.Judgment{Score: 0.5, Rationale: "partial"},
		},
		{
			name:     "braces inside rationale string",
			response: `{"score": 1, "rationale": "the answer {exactly} matched"}`,
			want:     core.Judgment{Score: 1, Rationale: "the answer {exactly} matched"},
		},
		{
			name:     "no JSON at all",
			response: "The answer looks fine to me.",
			wantErr:  true,
		},
		{
			name:     "unparseable JSON",
			response: `{"score": "high", "rationale": 3}`,
			wantErr:  true,
		},
		{
			name:     "score above one",
			response: `{"score": 7.5, "rationale": "enthusiastic"}`,
			wantErr:  true,
		},
		{
			name:     "negative score",
			response: `{"score": -0.2, "rationale": "harsh"}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJudgment(tt.response)
			if tt.wantErr {
				require.Error(t, err)
				// Malformed responses must carry the retryable code.
				var e *errs.Error
				require.True(t, stderrors.As(err, &e))
				assert.Equal(t, errs.JudgeMalformedResponse, e.Code())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMockJudgeDeterminism(t *testing.T) {
	j := NewMockJudge()
	req := core.JudgeRequest{
		Question:  "What is the aperture?",
		Candidate: "The Halvorsen reflector has a 4.2 meter aperture.",
		Expected:  "4.2 meters aperture Halvorsen",
	}

	first, err := j.Judge(context.Background(), req)
	require.NoError(t, err)
	second, err := j.Judge(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Greater(t, first.Score, 0.0)
}

func TestMockJudgeNormalizesUnicode(t *testing.T) {
	j := NewMockJudge()

	res, err := j.Judge(context.Background(), core.JudgeRequest{
		Candidate: "The plant is in LIÈGE",
		Expected:  "liege",
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Score)
}

func TestMockJudgePartialCredit(t *testing.T) {
	j := NewMockJudge()

	res, err := j.Judge(context.Background(), core.JudgeRequest{
		Candidate: "stations",
		Expected:  "nine stations opening",
	})
	require.NoError(t, err)
	assert.Greater(t, res.Score, 0.0)
	assert.Less(t, res.Score, 1.0)
}
