package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

func TestUniqueKeys(t *testing.T) {
	keys := &uniqueKeys{
		prefix: "audio/",
		now:    func() time.Time { return time.Unix(1700000000, 42) },
	}

	assert.Equal(t, "audio/1700000000000000042-inv-1.wav", keys.ObjectKey("inv-1", model.AudioClip{Name: "Mic.WAV"}))
	assert.Equal(t, "audio/1700000000000000042-inv-2.webm", keys.ObjectKey("inv-2", model.AudioClip{ContentType: "audio/webm;codecs=opus"}))
	assert.Equal(t, "audio/1700000000000000042-inv-3", keys.ObjectKey("inv-3", model.AudioClip{}))

	assert.Equal(t, "speech-transcription/inv-1/", keys.OutputPrefix("speech-transcription", "inv-1"))
	assert.Equal(t, "speech-transcription/inv-1/", keys.OutputPrefix("speech-transcription/", "inv-1"))
}

func TestFixedKey(t *testing.T) {
	keys := FixedKey("test.wav")

	assert.Equal(t, "test.wav", keys.ObjectKey("inv-1", model.AudioClip{Name: "a.mp3"}))
	assert.Equal(t, "test.wav", keys.ObjectKey("inv-2", model.AudioClip{Name: "b.mp3"}))
	assert.Equal(t, "speech-transcription", keys.OutputPrefix("speech-transcription", "inv-1"))
}

func TestClipExt(t *testing.T) {
	tests := []struct {
		clip model.AudioClip
		want string
	}{
		{model.AudioClip{Name: "voice.mp3", ContentType: "audio/wav"}, ".mp3"},
		{model.AudioClip{ContentType: "audio/x-wav"}, ".wav"},
		{model.AudioClip{ContentType: "audio/mpeg"}, ".mp3"},
		{model.AudioClip{ContentType: "audio/ogg"}, ".ogg"},
		{model.AudioClip{ContentType: "audio/x-m4a"}, ".m4a"},
		{model.AudioClip{ContentType: "application/octet-stream"}, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, clipExt(tt.clip), "%+v", tt.clip)
	}
}

func TestInflightGuard(t *testing.T) {
	g := newInflightGuard()
	h := contentHash([]byte("a"))

	release, err := g.acquire(h)
	require.NoError(t, err)

	_, err = g.acquire(h)
	assert.ErrorIs(t, err, ErrInputInFlight)

	other, err := g.acquire(contentHash([]byte("b")))
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := g.acquire(h)
	require.NoError(t, err)
	again()
}
