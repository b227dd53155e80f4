// Package poller turns the state of an asynchronous transcription job into a
// synchronous, time-bounded result.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

const (
	DefaultInterval = time.Second
	DefaultTimeout  = 60 * time.Second
)

// StatusGetter reads the current state of a job
type StatusGetter interface {
	GetStatus(ctx context.Context, jobID string) (*model.TranscriptionJob, error)
}

// WaitFunc blocks for d or until ctx is done, whichever comes first
type WaitFunc func(ctx context.Context, d time.Duration) error

// PollResult is the outcome of AwaitTerminal
type PollResult struct {
	Job      *model.TranscriptionJob // last observed
	Polls    int
	Elapsed  time.Duration
	TimedOut bool
}

// Poller polls a job at a fixed interval until it is terminal or the budget runs out
type Poller struct {
	getter StatusGetter
	wait   WaitFunc
}

// New creates a Poller that waits on real timers
func New(getter StatusGetter) *Poller {
	return NewWithWait(getter, timerWait)
}

// NewWithWait creates a Poller with a custom wait primitive (for testing)
func NewWithWait(getter StatusGetter, wait WaitFunc) *Poller {
	return &Poller{getter: getter, wait: wait}
}

// AwaitTerminal queries the job once, then re-queries every interval while the
// job is not terminal and less than timeout has elapsed. Elapsed counts whole
// intervals. Waits and status calls share one deadline of timeout plus one
// interval, so slow status calls cannot stretch the wait past the budget.
// A job still running when the budget is spent is returned with TimedOut set
// rather than as an error. Status errors and ctx cancellation are returned as
// errors.
func (p *Poller) AwaitTerminal(ctx context.Context, jobID string, interval, timeout time.Duration) (*PollResult, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	budget, cancel := context.WithTimeout(ctx, timeout+interval)
	defer cancel()

	job, err := p.status(budget, jobID)
	if err != nil {
		if expired(ctx, budget) {
			return nil, fmt.Errorf("no status for job %s within %s: %w", jobID, timeout, err)
		}
		return nil, err
	}
	res := &PollResult{Job: job, Polls: 1}

	for !job.State.IsTerminal() && res.Elapsed < timeout {
		if err := p.wait(budget, interval); err != nil {
			if expired(ctx, budget) {
				break
			}
			return res, err
		}
		res.Elapsed += interval

		next, err := p.status(budget, jobID)
		if err != nil {
			if expired(ctx, budget) {
				break
			}
			return res, err
		}
		job = next
		res.Job = job
		res.Polls++

		slog.Debug("polled transcription job", "job_id", jobID, "state", job.State, "elapsed", res.Elapsed)
	}

	res.TimedOut = !job.State.IsTerminal()
	if res.TimedOut {
		slog.Debug("transcription job poll budget spent", "job_id", jobID, "state", job.State, "polls", res.Polls)
	}
	return res, nil
}

func (p *Poller) status(ctx context.Context, jobID string) (*model.TranscriptionJob, error) {
	job, err := p.getter.GetStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("empty status for job %s", jobID)
	}
	return job, nil
}

// expired reports whether the poll deadline passed while the caller's ctx is still live
func expired(ctx, budget context.Context) bool {
	return ctx.Err() == nil && budget.Err() != nil
}

func timerWait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
