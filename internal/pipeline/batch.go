package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/model"
)

// BatchItem is the outcome of one clip in a batch
type BatchItem struct {
	Clip   string
	Result *model.RecognitionResult
	Err    error
}

// TranscribeAll runs clips with at most concurrency invocations in flight.
// A failing clip does not stop the others. Items keep the input order.
func (p *Pipeline) TranscribeAll(ctx context.Context, clips []model.AudioClip, concurrency int) []BatchItem {
	if concurrency < 1 {
		concurrency = 1
	}
	slog.Info("starting batch recognize", "clips", len(clips), "max_concurrent", concurrency)

	items := make([]BatchItem, len(clips))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, clip := range clips {
		g.Go(func() error {
			items[i].Clip = clip.Name
			if err := ctx.Err(); err != nil {
				items[i].Err = errors.Wrap(err, errors.CodeCancelled, "recognize cancelled")
				return nil
			}
			items[i].Result, items[i].Err = p.Transcribe(ctx, clip)
			if items[i].Err != nil {
				slog.Warn("clip failed", "clip", clip.Name, "error", items[i].Err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return items
}
