package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobState(t *testing.T) {
	tests := []struct {
		in       string
		want     JobState
		terminal bool
	}{
		{"ACCEPTED", JobStateRequested, false},
		{"in_progress", JobStateInProgress, false},
		{"SUCCEEDED", JobStateSucceeded, true},
		{"FAILED", JobStateFailed, true},
		{"CANCELED", JobStateCancelled, true},
		{"CANCELLED", JobStateCancelled, true},
		{"bogus", JobStateUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseJobState(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.terminal, got.IsTerminal())
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("support")
	require.NoError(t, err)
	assert.Equal(t, RoleSupport, r)

	r, err = ParseRole(" User ")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	_, err = ParseRole("agent")
	assert.Error(t, err)
}

func TestChatMessage_Display(t *testing.T) {
	m := &ChatMessage{Transcript: "こんにちは", Translated: "hello"}
	assert.Equal(t, "こんにちは\n[Translation] hello", m.Display())
}

func TestSentimentResult_Scores(t *testing.T) {
	var empty *SentimentResult
	assert.Nil(t, empty.Scores())

	r := &SentimentResult{
		Sentences: []SentenceSentiment{
			{Text: "Thanks a lot.", Scores: map[string]float64{"Positive": 0.91, "Negative": 0.02, "Neutral": 0.07}},
			{Text: "Bye.", Scores: map[string]float64{"Neutral": 1}},
		},
	}
	assert.Equal(t, 0.91, r.Scores()["Positive"])

	label, score := r.Dominant()
	assert.Equal(t, "Positive", label)
	assert.Equal(t, 0.91, score)
}

func TestObjectRef_String(t *testing.T) {
	ref := ObjectRef{Namespace: "ns", Bucket: "poc-bucket", Key: "output.wav"}
	assert.Equal(t, "ns/poc-bucket/output.wav", ref.String())
}
