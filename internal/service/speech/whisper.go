package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/model"
	"github.com/Taichi-iskw/voice-support/internal/service/common"
	"github.com/Taichi-iskw/voice-support/internal/storage"
	"github.com/Taichi-iskw/voice-support/internal/transcript"
)

// whisperOutput is the subset of the Whisper CLI JSON we read
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// JobRetention is how long a finished local job stays readable
const JobRetention = 10 * time.Minute

type localJob struct {
	job        model.TranscriptionJob
	cancel     context.CancelFunc
	finishedAt time.Time
}

// WhisperEngine runs transcription jobs in-process with the Whisper CLI.
// Audio is read from and results are written to the same object store
// the caller uploads to, so it behaves like the remote service.
type WhisperEngine struct {
	store     storage.ObjectStore
	cmdRunner common.CmdRunner
	model     string
	retention time.Duration
	now       func() time.Time

	mu   sync.Mutex
	jobs map[string]*localJob
	wg   sync.WaitGroup
}

// NewWhisperEngine creates a WhisperEngine with the default CmdRunner
func NewWhisperEngine(store storage.ObjectStore, whisperModel string) *WhisperEngine {
	return NewWhisperEngineWithCmdRunner(store, common.NewCmdRunner(), whisperModel)
}

// NewWhisperEngineWithCmdRunner creates a WhisperEngine with custom CmdRunner (for testing)
func NewWhisperEngineWithCmdRunner(store storage.ObjectStore, cmdRunner common.CmdRunner, whisperModel string) *WhisperEngine {
	if whisperModel == "" {
		whisperModel = "medium"
	}
	return &WhisperEngine{
		store:     store,
		cmdRunner: cmdRunner,
		model:     whisperModel,
		retention: JobRetention,
		now:       time.Now,
		jobs:      make(map[string]*localJob),
	}
}

// Submit registers the job and starts it in the background.
// The job outlives ctx; use Cancel to stop it.
func (e *WhisperEngine) Submit(ctx context.Context, req SubmitRequest) (*model.TranscriptionJob, error) {
	if req.Input.Key == "" {
		return nil, errors.New(errors.CodeInvalidArg, "input object key is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	lj := &localJob{
		job: model.TranscriptionJob{
			ID:        "local-" + uuid.NewString(),
			State:     model.JobStateRequested,
			Input:     req.Input,
			Output:    req.Output,
			CreatedAt: e.now().UTC(),
		},
		cancel: cancel,
	}

	e.mu.Lock()
	e.pruneLocked()
	e.jobs[lj.job.ID] = lj
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		e.run(jobCtx, lj.job.ID, req)
	}()

	job := lj.job
	return &job, nil
}

// GetStatus returns a snapshot of the job. Finished jobs are forgotten
// after the retention window.
func (e *WhisperEngine) GetStatus(ctx context.Context, jobID string) (*model.TranscriptionJob, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pruneLocked()

	lj, ok := e.jobs[jobID]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("transcription job %s not found", jobID))
	}
	job := lj.job
	return &job, nil
}

// Cancel stops a running job. Cancelling a finished job is a no-op.
func (e *WhisperEngine) Cancel(ctx context.Context, jobID string) error {
	e.mu.Lock()
	lj, ok := e.jobs[jobID]
	e.mu.Unlock()
	if !ok {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("transcription job %s not found", jobID))
	}
	lj.cancel()
	return nil
}

// Close cancels every job and waits for the workers to exit
func (e *WhisperEngine) Close() {
	e.mu.Lock()
	for _, lj := range e.jobs {
		lj.cancel()
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *WhisperEngine) setState(jobID string, state model.JobState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if lj, ok := e.jobs[jobID]; ok {
		lj.job.State = state
		if state.IsTerminal() {
			lj.finishedAt = e.now()
		}
	}
}

// pruneLocked drops jobs that finished more than retention ago. e.mu must be held.
func (e *WhisperEngine) pruneLocked() {
	now := e.now()
	for id, lj := range e.jobs {
		if !lj.finishedAt.IsZero() && now.Sub(lj.finishedAt) >= e.retention {
			delete(e.jobs, id)
		}
	}
}

func (e *WhisperEngine) run(ctx context.Context, jobID string, req SubmitRequest) {
	e.setState(jobID, model.JobStateInProgress)

	err := e.transcribe(ctx, req)
	switch {
	case err == nil:
		e.setState(jobID, model.JobStateSucceeded)
	case ctx.Err() != nil:
		slog.Info("whisper job cancelled", "job_id", jobID)
		e.setState(jobID, model.JobStateCancelled)
	default:
		slog.Error("whisper job failed", "job_id", jobID, "error", err)
		e.setState(jobID, model.JobStateFailed)
	}
}

func (e *WhisperEngine) transcribe(ctx context.Context, req SubmitRequest) error {
	audio, err := e.store.Get(ctx, req.Input)
	if err != nil {
		return fmt.Errorf("read input %s: %w", req.Input, err)
	}

	tempDir, err := os.MkdirTemp("", "voice-support-whisper-*")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	audioPath := filepath.Join(tempDir, filepath.Base(req.Input.Key))
	if err := os.WriteFile(audioPath, audio, 0o600); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}

	language := req.Params.LanguageCode
	if language == "" {
		language = "ja"
	}

	args := []string{
		audioPath,
		"--model", e.model,
		"--language", language,
		"--output_format", "json",
		"--output_dir", tempDir,
		"--temperature", "0",
	}
	if _, err := e.cmdRunner.Run(ctx, "whisper", args...); err != nil {
		return fmt.Errorf("whisper execution failed: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	raw, err := os.ReadFile(filepath.Join(tempDir, baseName+".json"))
	if err != nil {
		return fmt.Errorf("read whisper output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("parse whisper output: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(out.Segments))
	for _, seg := range out.Segments {
		segments = append(segments, transcript.Segment{Transcription: strings.TrimSpace(seg.Text)})
	}

	doc, err := transcript.Marshal("SUCCESS", segments)
	if err != nil {
		return err
	}

	job := model.TranscriptionJob{Input: req.Input, Output: req.Output}
	if err := e.store.Put(ctx, OutputObject(&job), doc); err != nil {
		return fmt.Errorf("write transcription result: %w", err)
	}
	return nil
}
