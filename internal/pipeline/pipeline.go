// Package pipeline sequences one recognize invocation: upload, submit,
// poll, fetch, parse and translate.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/model"
	"github.com/Taichi-iskw/voice-support/internal/poller"
	"github.com/Taichi-iskw/voice-support/internal/service/language"
	"github.com/Taichi-iskw/voice-support/internal/service/speech"
	"github.com/Taichi-iskw/voice-support/internal/storage"
	"github.com/Taichi-iskw/voice-support/internal/transcript"
)

const remoteCancelTimeout = 10 * time.Second

// Awaiter waits for a job to reach a terminal state
type Awaiter interface {
	AwaitTerminal(ctx context.Context, jobID string, interval, timeout time.Duration) (*poller.PollResult, error)
}

// Options configures a Pipeline
type Options struct {
	CompartmentID string
	DisplayName   string
	Namespace     string
	Bucket        string
	OutputPrefix  string
	Params        model.ModelParams
	PollInterval  time.Duration
	PollTimeout   time.Duration
	SourceLang    string
	TargetLang    string
	Keys          KeyStrategy
}

// Pipeline turns an audio clip into a transcript and its translation
type Pipeline struct {
	store      storage.ObjectStore
	speech     speech.Service
	awaiter    Awaiter
	translator language.Translator
	opts       Options
	inflight   *inflightGuard
	newID      func() string
}

// New creates a Pipeline polling with real timers
func New(store storage.ObjectStore, speechSvc speech.Service, translator language.Translator, opts Options) *Pipeline {
	return NewWithDependencies(store, speechSvc, poller.New(speechSvc), translator, opts)
}

// NewWithDependencies creates a Pipeline with a custom Awaiter (for testing)
func NewWithDependencies(store storage.ObjectStore, speechSvc speech.Service, awaiter Awaiter, translator language.Translator, opts Options) *Pipeline {
	if opts.Keys == nil {
		opts.Keys = UniqueKeys("")
	}
	if opts.SourceLang == "" {
		opts.SourceLang = "ja"
	}
	if opts.TargetLang == "" {
		opts.TargetLang = "en"
	}
	return &Pipeline{
		store:      store,
		speech:     speechSvc,
		awaiter:    awaiter,
		translator: translator,
		opts:       opts,
		inflight:   newInflightGuard(),
		newID:      uuid.NewString,
	}
}

// Transcribe runs one invocation. Every failure is an *errors.AppError tagged
// with the step that failed.
func (p *Pipeline) Transcribe(ctx context.Context, clip model.AudioClip) (*model.RecognitionResult, error) {
	if len(clip.Data) == 0 {
		return nil, errors.New(errors.CodeInvalidArg, "audio clip is empty")
	}

	release, err := p.inflight.acquire(contentHash(clip.Data))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConflict, "duplicate recognize request")
	}
	defer release()

	invocationID := p.newID()
	input := model.ObjectRef{
		Namespace: p.opts.Namespace,
		Bucket:    p.opts.Bucket,
		Key:       p.opts.Keys.ObjectKey(invocationID, clip),
	}
	log := slog.With("invocation_id", invocationID, "object", input.String())

	// a. upload
	if err := p.store.Put(ctx, input, clip.Data); err != nil {
		return nil, p.fail(ctx, err, errors.CodeUpload, "failed to upload audio")
	}
	log.Info("audio uploaded", "bytes", len(clip.Data))

	// b. submit, never retried
	output := model.OutputLocation{
		Namespace: p.opts.Namespace,
		Bucket:    p.opts.Bucket,
		Prefix:    p.opts.Keys.OutputPrefix(p.opts.OutputPrefix, invocationID),
	}
	job, err := p.speech.Submit(ctx, speech.SubmitRequest{
		CompartmentID: p.opts.CompartmentID,
		DisplayName:   p.opts.DisplayName,
		Input:         input,
		Output:        output,
		Params:        p.opts.Params,
	})
	if err != nil {
		return nil, p.fail(ctx, err, errors.CodeSubmission, "failed to submit transcription job")
	}
	log = log.With("job_id", job.ID)
	log.Info("transcription job submitted", "state", job.State)

	// c. poll
	res, err := p.awaiter.AwaitTerminal(ctx, job.ID, p.opts.PollInterval, p.opts.PollTimeout)
	if err != nil {
		if ctx.Err() != nil {
			p.cancelRemote(ctx, job.ID)
		}
		return nil, p.fail(ctx, err, errors.CodeExternal, "failed to query transcription job")
	}

	// d. classify
	log = log.With("state", res.Job.State, "polls", res.Polls, "elapsed", res.Elapsed)
	switch {
	case res.TimedOut:
		log.Warn("transcription job timed out")
		p.cancelRemote(ctx, job.ID)
		return nil, errors.New(errors.CodePollTimeout,
			fmt.Sprintf("transcription job %s still %s after %s", job.ID, res.Job.State, res.Elapsed))
	case res.Job.State != model.JobStateSucceeded:
		log.Warn("transcription job did not succeed")
		return nil, errors.New(errors.CodeJobFailed,
			fmt.Sprintf("transcription job %s ended in state %s", job.ID, res.Job.State))
	}
	log.Info("transcription job succeeded")

	// e. fetch and parse
	resultRef := p.resultObject(res.Job, output, input)
	raw, err := p.store.Get(ctx, resultRef)
	if err != nil {
		return nil, p.fail(ctx, err, errors.CodeParse, fmt.Sprintf("failed to fetch transcription result %s", resultRef))
	}
	text, err := transcript.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, fmt.Sprintf("malformed transcription result %s", resultRef))
	}

	// f. translate
	translated, err := language.TranslateText(ctx, p.translator, text, p.opts.SourceLang, p.opts.TargetLang)
	if err != nil {
		return nil, p.fail(ctx, err, errors.CodeTranslation, "failed to translate transcript")
	}
	log.Info("transcript translated", "chars", len(text))

	return &model.RecognitionResult{
		JobID:      job.ID,
		Input:      input,
		Transcript: text,
		Translated: translated.TranslatedText,
	}, nil
}

// resultObject prefers the output location the service reports for the job
func (p *Pipeline) resultObject(job *model.TranscriptionJob, requested model.OutputLocation, input model.ObjectRef) model.ObjectRef {
	out := job.Output
	if out.Namespace == "" || out.Bucket == "" {
		out = requested
	}
	return model.ObjectRef{
		Namespace: out.Namespace,
		Bucket:    out.Bucket,
		Key:       speech.OutputObjectName(out, input.Key),
	}
}

// cancelRemote asks the service to stop the job, if it can, without
// inheriting ctx cancellation.
func (p *Pipeline) cancelRemote(ctx context.Context, jobID string) {
	canceler, ok := p.speech.(speech.Canceler)
	if !ok {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), remoteCancelTimeout)
	defer cancel()

	if err := canceler.Cancel(cctx, jobID); err != nil {
		slog.Warn("failed to cancel transcription job", "job_id", jobID, "error", err)
		return
	}
	slog.Info("transcription job cancelled", "job_id", jobID)
}

// fail tags err with code, or with CANCELLED when ctx is done
func (p *Pipeline) fail(ctx context.Context, err error, code, msg string) error {
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
		return errors.Wrap(err, errors.CodeCancelled, "recognize cancelled")
	}
	return errors.Wrap(err, code, msg)
}
