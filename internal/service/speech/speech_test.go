package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/model"
	"github.com/Taichi-iskw/voice-support/internal/storage"
	"github.com/Taichi-iskw/voice-support/internal/transcript"
)

func TestOutputObjectName(t *testing.T) {
	out := model.OutputLocation{Namespace: "ns", Bucket: "poc-bucket", Prefix: "speech-transcription/inv-1/"}

	assert.Equal(t,
		"speech-transcription/inv-1/ns_poc-bucket_audio/test.wav.json",
		OutputObjectName(out, "audio/test.wav"))

	job := &model.TranscriptionJob{
		Input:  model.ObjectRef{Namespace: "ns", Bucket: "poc-bucket", Key: "audio/test.wav"},
		Output: out,
	}
	ref := OutputObject(job)
	assert.Equal(t, "ns", ref.Namespace)
	assert.Equal(t, "poc-bucket", ref.Bucket)
	assert.Equal(t, "speech-transcription/inv-1/ns_poc-bucket_audio/test.wav.json", ref.Key)
}

func TestRemoteService(t *testing.T) {
	var gotCreate map[string]any
	var cancelled []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/transcriptionJobs":
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &gotCreate))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"job-1","lifecycleState":"ACCEPTED",
				"outputLocation":{"namespaceName":"ns","bucketName":"poc-bucket","prefix":"out/"},
				"timeAccepted":"2024-05-01T10:00:00Z"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/transcriptionJobs/job-1":
			fmt.Fprint(w, `{"id":"job-1","lifecycleState":"SUCCEEDED",
				"inputLocation":{"locationType":"OBJECT_LIST_INLINE_INPUT_LOCATION",
					"objectLocations":[{"namespaceName":"ns","bucketName":"poc-bucket","objectNames":["audio/test.wav"]}]},
				"outputLocation":{"namespaceName":"ns","bucketName":"poc-bucket","prefix":"out/"}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/transcriptionJobs/job-1/actions/cancel":
			cancelled = append(cancelled, "job-1")
			w.WriteHeader(http.StatusAccepted)
		case r.URL.Path == "/transcriptionJobs/missing":
			http.Error(w, `{"code":"NotAuthorizedOrNotFound"}`, http.StatusNotFound)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	svc := NewRemoteService(srv.URL+"/", "secret")
	ctx := context.Background()

	input := model.ObjectRef{Namespace: "ns", Bucket: "poc-bucket", Key: "audio/test.wav"}
	job, err := svc.Submit(ctx, SubmitRequest{
		CompartmentID: "ocid1.compartment",
		DisplayName:   "voice-support",
		Input:         input,
		Output:        model.OutputLocation{Namespace: "ns", Bucket: "poc-bucket", Prefix: "out/"},
		Params:        model.DefaultModelParams(),
	})
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, model.JobStateRequested, job.State)
	assert.Equal(t, input, job.Input)
	assert.Equal(t, "out/", job.Output.Prefix)

	assert.Equal(t, "ocid1.compartment", gotCreate["compartmentId"])
	details := gotCreate["modelDetails"].(map[string]any)
	assert.Equal(t, "WHISPER_MEDIUM", details["modelType"])
	assert.Equal(t, "ja", details["languageCode"])
	assert.Equal(t, []any{"SRT"}, gotCreate["additionalTranscriptionFormats"])
	assert.Equal(t, true, gotCreate["normalization"].(map[string]any)["isPunctuationEnabled"])

	job, err = svc.GetStatus(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStateSucceeded, job.State)
	assert.Equal(t, "audio/test.wav", job.Input.Key)

	require.NoError(t, svc.Cancel(ctx, "job-1"))
	assert.Equal(t, []string{"job-1"}, cancelled)

	_, err = svc.GetStatus(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

// MockCmdRunner implements common.CmdRunner for testing
type MockCmdRunner struct {
	RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func (m *MockCmdRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return nil, nil
}

// fakeWhisper writes a Whisper-style JSON file next to the audio, as the CLI does
func fakeWhisper(segments ...string) func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name != "whisper" {
			return nil, fmt.Errorf("unexpected command %s", name)
		}
		audioPath := args[0]
		outDir := ""
		for i, a := range args {
			if a == "--output_dir" {
				outDir = args[i+1]
			}
		}
		base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))

		out := map[string]any{"text": strings.Join(segments, ""), "language": "ja"}
		var segs []map[string]any
		for i, s := range segments {
			segs = append(segs, map[string]any{"id": i, "text": " " + s})
		}
		out["segments"] = segs
		raw, _ := json.Marshal(out)
		return nil, os.WriteFile(filepath.Join(outDir, base+".json"), raw, 0o600)
	}
}

func waitForState(t *testing.T, e *WhisperEngine, jobID string) *model.TranscriptionJob {
	t.Helper()
	var job *model.TranscriptionJob
	require.Eventually(t, func() bool {
		var err error
		job, err = e.GetStatus(context.Background(), jobID)
		return err == nil && job.State.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestWhisperEngine_Succeeds(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	input := model.ObjectRef{Namespace: "local", Bucket: "poc-bucket", Key: "audio/test.wav"}
	require.NoError(t, store.Put(ctx, input, []byte("RIFF")))

	var gotArgs []string
	runner := &MockCmdRunner{RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return fakeWhisper("こんにちは", "お世話になります")(ctx, name, args...)
	}}
	engine := NewWhisperEngineWithCmdRunner(store, runner, "small")
	defer engine.Close()

	out := model.OutputLocation{Namespace: "local", Bucket: "poc-bucket", Prefix: "speech/inv/"}
	job, err := engine.Submit(ctx, SubmitRequest{Input: input, Output: out, Params: model.DefaultModelParams()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(job.ID, "local-"))

	job = waitForState(t, engine, job.ID)
	require.Equal(t, model.JobStateSucceeded, job.State)

	assert.Contains(t, gotArgs, "small")
	assert.Contains(t, gotArgs, "ja")

	raw, err := store.Get(ctx, OutputObject(job))
	require.NoError(t, err)
	text, err := transcript.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "こんにちはお世話になります", text)
}

func TestWhisperEngine_Fails(t *testing.T) {
	tests := []struct {
		name   string
		seed   bool
		runner *MockCmdRunner
	}{
		{
			name:   "input missing",
			seed:   false,
			runner: &MockCmdRunner{RunFunc: fakeWhisper("x")},
		},
		{
			name: "whisper exits non-zero",
			seed: true,
			runner: &MockCmdRunner{RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return nil, fmt.Errorf("whisper: exit status 1: model not found")
			}},
		},
		{
			name:   "whisper writes nothing",
			seed:   true,
			runner: &MockCmdRunner{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			ctx := context.Background()
			input := model.ObjectRef{Namespace: "local", Bucket: "b", Key: "a.wav"}
			if tt.seed {
				require.NoError(t, store.Put(ctx, input, []byte("RIFF")))
			}

			engine := NewWhisperEngineWithCmdRunner(store, tt.runner, "")
			defer engine.Close()

			job, err := engine.Submit(ctx, SubmitRequest{Input: input, Output: model.OutputLocation{Namespace: "local", Bucket: "b"}})
			require.NoError(t, err)

			job = waitForState(t, engine, job.ID)
			assert.Equal(t, model.JobStateFailed, job.State)
		})
	}
}

func TestWhisperEngine_Cancel(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	input := model.ObjectRef{Namespace: "local", Bucket: "b", Key: "a.wav"}
	require.NoError(t, store.Put(ctx, input, []byte("RIFF")))

	started := make(chan struct{})
	var once sync.Once
	runner := &MockCmdRunner{RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	engine := NewWhisperEngineWithCmdRunner(store, runner, "")
	defer engine.Close()

	job, err := engine.Submit(ctx, SubmitRequest{Input: input})
	require.NoError(t, err)

	<-started
	require.NoError(t, engine.Cancel(ctx, job.ID))

	job = waitForState(t, engine, job.ID)
	assert.Equal(t, model.JobStateCancelled, job.State)
}

func TestWhisperEngine_Errors(t *testing.T) {
	engine := NewWhisperEngineWithCmdRunner(storage.NewMemoryStore(), &MockCmdRunner{}, "")
	defer engine.Close()
	ctx := context.Background()

	_, err := engine.Submit(ctx, SubmitRequest{})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidArg))

	_, err = engine.GetStatus(ctx, "nope")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	err = engine.Cancel(ctx, "nope")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

// steppedClock is a settable clock safe for use from job goroutines
type steppedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestWhisperEngine_ForgetsFinishedJobs(t *testing.T) {
	clock := &steppedClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	runner := &MockCmdRunner{RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, fmt.Errorf("whisper: exit status 1")
	}}
	engine := NewWhisperEngineWithCmdRunner(storage.NewMemoryStore(), runner, "")
	engine.now = clock.Now
	defer engine.Close()

	ctx := context.Background()
	ids := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		job, err := engine.Submit(ctx, SubmitRequest{Input: model.ObjectRef{Namespace: "local", Bucket: "b", Key: fmt.Sprintf("%d.wav", i)}})
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}
	for _, id := range ids {
		waitForState(t, engine, id)
	}

	// Still readable inside the retention window
	clock.Advance(JobRetention - time.Second)
	job, err := engine.GetStatus(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.JobStateFailed, job.State)

	clock.Advance(time.Second)
	_, err = engine.GetStatus(ctx, ids[0])
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	engine.mu.Lock()
	retained := len(engine.jobs)
	engine.mu.Unlock()
	assert.Zero(t, retained)
}

func TestWhisperEngine_KeepsRunningJobs(t *testing.T) {
	clock := &steppedClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	started := make(chan struct{})
	var once sync.Once
	runner := &MockCmdRunner{RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	store := storage.NewMemoryStore()
	ctx := context.Background()
	input := model.ObjectRef{Namespace: "local", Bucket: "b", Key: "a.wav"}
	require.NoError(t, store.Put(ctx, input, []byte("RIFF")))

	engine := NewWhisperEngineWithCmdRunner(store, runner, "")
	engine.now = clock.Now
	defer engine.Close()

	job, err := engine.Submit(ctx, SubmitRequest{Input: input})
	require.NoError(t, err)
	<-started

	clock.Advance(2 * JobRetention)
	job, err = engine.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStateInProgress, job.State)
}
