package model

import (
	"fmt"
	"strings"
	"time"
)

// AudioClip is a recorded voice clip waiting to be uploaded
type AudioClip struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// ObjectRef identifies a stored blob
type ObjectRef struct {
	Namespace string `json:"namespace"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
}

func (r ObjectRef) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Namespace, r.Bucket, r.Key)
}

// OutputLocation is where a transcription job writes its results
type OutputLocation struct {
	Namespace string `json:"namespace"`
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
}

// JobState is the lifecycle state of a remote transcription job
type JobState string

const (
	JobStateRequested  JobState = "REQUESTED"
	JobStateInProgress JobState = "IN_PROGRESS"
	JobStateSucceeded  JobState = "SUCCEEDED"
	JobStateFailed     JobState = "FAILED"
	JobStateCancelled  JobState = "CANCELED"
	JobStateUnknown    JobState = "UNKNOWN"
)

// ParseJobState maps a wire value to a JobState. Both CANCELED and CANCELLED are accepted.
func ParseJobState(s string) JobState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACCEPTED", "REQUESTED":
		return JobStateRequested
	case "IN_PROGRESS", "CANCELING":
		return JobStateInProgress
	case "SUCCEEDED":
		return JobStateSucceeded
	case "FAILED":
		return JobStateFailed
	case "CANCELED", "CANCELLED":
		return JobStateCancelled
	default:
		return JobStateUnknown
	}
}

// IsTerminal reports whether no further transitions can occur
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed, JobStateCancelled:
		return true
	default:
		return false
	}
}

// TranscriptionJob is a handle to an asynchronous transcription job
type TranscriptionJob struct {
	ID        string         `json:"id"`
	State     JobState       `json:"lifecycle_state"`
	Input     ObjectRef      `json:"input"`
	Output    OutputLocation `json:"output_location"`
	CreatedAt time.Time      `json:"created_at"`
}

// ModelParams selects the speech model and its settings
type ModelParams struct {
	ModelType                string   `json:"model_type" yaml:"model_type"`
	Domain                   string   `json:"domain" yaml:"domain"`
	LanguageCode             string   `json:"language_code" yaml:"language_code"`
	DiarizationEnabled       bool     `json:"diarization_enabled" yaml:"diarization_enabled"`
	PunctuationNormalization bool     `json:"punctuation_normalization" yaml:"punctuation_normalization"`
	ExtraFormats             []string `json:"additional_transcription_formats,omitempty" yaml:"extra_formats"`
}

// DefaultModelParams returns the parameters the support desk runs with
func DefaultModelParams() ModelParams {
	return ModelParams{
		ModelType:                "WHISPER_MEDIUM",
		Domain:                   "GENERIC",
		LanguageCode:             "ja",
		DiarizationEnabled:       false,
		PunctuationNormalization: true,
		ExtraFormats:             []string{"SRT"},
	}
}

// RecognitionResult is the outcome of one recognize invocation
type RecognitionResult struct {
	JobID      string    `json:"job_id"`
	Input      ObjectRef `json:"input"`
	Transcript string    `json:"transcript"`
	Translated string    `json:"translated"`
}
