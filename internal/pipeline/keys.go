package pipeline

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// KeyStrategy decides where a clip is uploaded and where its job writes results
type KeyStrategy interface {
	// ObjectKey returns the storage key for one invocation
	ObjectKey(invocationID string, clip model.AudioClip) string

	// OutputPrefix returns the job output prefix for one invocation
	OutputPrefix(base, invocationID string) string
}

type uniqueKeys struct {
	prefix string
	now    func() time.Time
}

// UniqueKeys gives every invocation its own object key,
// {prefix}{unixnano}-{invocationID}{ext}, and its own output prefix.
func UniqueKeys(prefix string) KeyStrategy {
	return &uniqueKeys{prefix: prefix, now: time.Now}
}

func (u *uniqueKeys) ObjectKey(invocationID string, clip model.AudioClip) string {
	return fmt.Sprintf("%s%d-%s%s", u.prefix, u.now().UnixNano(), invocationID, clipExt(clip))
}

func (u *uniqueKeys) OutputPrefix(base, invocationID string) string {
	return path.Join(base, invocationID) + "/"
}

type fixedKey struct {
	key string
}

// FixedKey uploads every clip to the same key and shares one output prefix.
// Concurrent invocations overwrite each other's objects.
func FixedKey(key string) KeyStrategy {
	return &fixedKey{key: key}
}

func (f *fixedKey) ObjectKey(string, model.AudioClip) string {
	return f.key
}

func (f *fixedKey) OutputPrefix(base, _ string) string {
	return base
}

func clipExt(clip model.AudioClip) string {
	if ext := filepath.Ext(clip.Name); ext != "" {
		return strings.ToLower(ext)
	}
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(clip.ContentType, ";", 2)[0])) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	default:
		return ""
	}
}
