package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// RemoteService calls a speech REST endpoint exposing
// POST /transcriptionJobs, GET /transcriptionJobs/{id} and
// POST /transcriptionJobs/{id}/actions/cancel
type RemoteService struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewRemoteService creates a RemoteService
func NewRemoteService(endpoint, token string) *RemoteService {
	return &RemoteService{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type objectLocation struct {
	NamespaceName string   `json:"namespaceName"`
	BucketName    string   `json:"bucketName"`
	ObjectNames   []string `json:"objectNames"`
}

type inputLocation struct {
	LocationType    string           `json:"locationType"`
	ObjectLocations []objectLocation `json:"objectLocations"`
}

type outputLocation struct {
	NamespaceName string `json:"namespaceName"`
	BucketName    string `json:"bucketName"`
	Prefix        string `json:"prefix"`
}

type createJobRequest struct {
	CompartmentID                  string         `json:"compartmentId"`
	DisplayName                    string         `json:"displayName,omitempty"`
	InputLocation                  inputLocation  `json:"inputLocation"`
	OutputLocation                 outputLocation `json:"outputLocation"`
	AdditionalTranscriptionFormats []string       `json:"additionalTranscriptionFormats,omitempty"`
	ModelDetails                   struct {
		ModelType             string `json:"modelType"`
		Domain                string `json:"domain"`
		LanguageCode          string `json:"languageCode"`
		TranscriptionSettings struct {
			Diarization struct {
				IsDiarizationEnabled bool `json:"isDiarizationEnabled"`
			} `json:"diarization"`
		} `json:"transcriptionSettings"`
	} `json:"modelDetails"`
	Normalization struct {
		IsPunctuationEnabled bool `json:"isPunctuationEnabled"`
	} `json:"normalization"`
}

type jobResponse struct {
	ID             string         `json:"id"`
	LifecycleState string         `json:"lifecycleState"`
	InputLocation  inputLocation  `json:"inputLocation"`
	OutputLocation outputLocation `json:"outputLocation"`
	TimeAccepted   time.Time      `json:"timeAccepted"`
}

// Submit creates a transcription job
func (s *RemoteService) Submit(ctx context.Context, req SubmitRequest) (*model.TranscriptionJob, error) {
	var body createJobRequest
	body.CompartmentID = req.CompartmentID
	body.DisplayName = req.DisplayName
	body.InputLocation = inputLocation{
		LocationType: "OBJECT_LIST_INLINE_INPUT_LOCATION",
		ObjectLocations: []objectLocation{{
			NamespaceName: req.Input.Namespace,
			BucketName:    req.Input.Bucket,
			ObjectNames:   []string{req.Input.Key},
		}},
	}
	body.OutputLocation = outputLocation{
		NamespaceName: req.Output.Namespace,
		BucketName:    req.Output.Bucket,
		Prefix:        req.Output.Prefix,
	}
	body.AdditionalTranscriptionFormats = req.Params.ExtraFormats
	body.ModelDetails.ModelType = req.Params.ModelType
	body.ModelDetails.Domain = req.Params.Domain
	body.ModelDetails.LanguageCode = req.Params.LanguageCode
	body.ModelDetails.TranscriptionSettings.Diarization.IsDiarizationEnabled = req.Params.DiarizationEnabled
	body.Normalization.IsPunctuationEnabled = req.Params.PunctuationNormalization

	var resp jobResponse
	if err := s.do(ctx, http.MethodPost, "/transcriptionJobs", body, &resp); err != nil {
		return nil, fmt.Errorf("create transcription job: %w", err)
	}

	job := resp.toJob()
	// Not every endpoint echoes the input location back
	if job.Input.Key == "" {
		job.Input = req.Input
	}
	return job, nil
}

// GetStatus fetches the job
func (s *RemoteService) GetStatus(ctx context.Context, jobID string) (*model.TranscriptionJob, error) {
	var resp jobResponse
	if err := s.do(ctx, http.MethodGet, "/transcriptionJobs/"+url.PathEscape(jobID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get transcription job %s: %w", jobID, err)
	}
	return resp.toJob(), nil
}

// Cancel requests cancellation of the job
func (s *RemoteService) Cancel(ctx context.Context, jobID string) error {
	if err := s.do(ctx, http.MethodPost, "/transcriptionJobs/"+url.PathEscape(jobID)+"/actions/cancel", nil, nil); err != nil {
		return fmt.Errorf("cancel transcription job %s: %w", jobID, err)
	}
	return nil
}

func (r *jobResponse) toJob() *model.TranscriptionJob {
	job := &model.TranscriptionJob{
		ID:    r.ID,
		State: model.ParseJobState(r.LifecycleState),
		Output: model.OutputLocation{
			Namespace: r.OutputLocation.NamespaceName,
			Bucket:    r.OutputLocation.BucketName,
			Prefix:    r.OutputLocation.Prefix,
		},
		CreatedAt: r.TimeAccepted,
	}
	if len(r.InputLocation.ObjectLocations) > 0 {
		loc := r.InputLocation.ObjectLocations[0]
		job.Input.Namespace = loc.NamespaceName
		job.Input.Bucket = loc.BucketName
		if len(loc.ObjectNames) > 0 {
			job.Input.Key = loc.ObjectNames[0]
		}
	}
	return job
}

func (s *RemoteService) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech API request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("speech API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
