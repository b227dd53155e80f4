package speech

import (
	"context"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// SubmitRequest describes one transcription job
type SubmitRequest struct {
	CompartmentID string
	DisplayName   string
	Input         model.ObjectRef
	Output        model.OutputLocation
	Params        model.ModelParams
}

// Service runs asynchronous transcription jobs over stored audio
type Service interface {
	// Submit creates a job. It is not idempotent and must not be retried blindly.
	Submit(ctx context.Context, req SubmitRequest) (*model.TranscriptionJob, error)

	// GetStatus returns the current state of a job
	GetStatus(ctx context.Context, jobID string) (*model.TranscriptionJob, error)
}

// Canceler is implemented by services that can stop a running job
type Canceler interface {
	Cancel(ctx context.Context, jobID string) error
}

// OutputObjectName returns the name of the JSON result for inputKey:
// {prefix}{namespace}_{bucket}_{inputKey}.json
func OutputObjectName(out model.OutputLocation, inputKey string) string {
	return out.Prefix + out.Namespace + "_" + out.Bucket + "_" + inputKey + ".json"
}

// OutputObject returns the reference to the JSON result of job
func OutputObject(job *model.TranscriptionJob) model.ObjectRef {
	return model.ObjectRef{
		Namespace: job.Output.Namespace,
		Bucket:    job.Output.Bucket,
		Key:       OutputObjectName(job.Output, job.Input.Key),
	}
}
