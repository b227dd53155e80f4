package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/model"
	"github.com/Taichi-iskw/voice-support/internal/storage"
)

func TestPipeline_TranscribeAll(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newFakeSpeech(store)
	p := newTestPipeline(store, svc, UniqueKeys("audio/"))

	clips := []model.AudioClip{
		{Name: "a.wav", Data: []byte("こんにちは")},
		{Name: "empty.wav"},
		{Name: "b.wav", Data: []byte("ありがとう")},
	}

	items := p.TranscribeAll(context.Background(), clips, 2)
	require.Len(t, items, 3)

	assert.Equal(t, "a.wav", items[0].Clip)
	require.NoError(t, items[0].Err)
	assert.Equal(t, "hello", items[0].Result.Translated)

	assert.Equal(t, "empty.wav", items[1].Clip)
	assert.Equal(t, errors.CodeInvalidArg, errors.CodeOf(items[1].Err))
	assert.Nil(t, items[1].Result)

	require.NoError(t, items[2].Err)
	assert.Equal(t, "ありがとう", items[2].Result.Transcript)
	assert.Equal(t, "en:ありがとう", items[2].Result.Translated)

	assert.Len(t, svc.submitted, 2)
}

func TestPipeline_TranscribeAllCancelled(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newFakeSpeech(store)
	p := newTestPipeline(store, svc, UniqueKeys("audio/"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := p.TranscribeAll(ctx, []model.AudioClip{clip("a"), clip("b")}, 0)
	for _, item := range items {
		assert.Equal(t, errors.CodeCancelled, errors.CodeOf(item.Err))
	}
	assert.Empty(t, svc.submitted)
}
