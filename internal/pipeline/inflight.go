package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
)

// ErrInputInFlight is returned when the same audio is already being transcribed
var ErrInputInFlight = errors.New("a transcription for this input is already running")

// inflightGuard allows one running job per input content
type inflightGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{running: make(map[string]struct{})}
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// acquire marks hash as running. The returned func releases it.
func (g *inflightGuard) acquire(hash string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.running[hash]; ok {
		return nil, ErrInputInFlight
	}
	g.running[hash] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, hash)
			g.mu.Unlock()
		})
	}, nil
}
