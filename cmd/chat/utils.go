package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Taichi-iskw/voice-support/internal/model"
	"github.com/Taichi-iskw/voice-support/internal/service/chat"
)

const connectTimeout = 30 * time.Second

var audioContentTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".flac": "audio/flac",
	".aac":  "audio/aac",
}

// ReadClip loads an audio file from disk
func ReadClip(path string) (model.AudioClip, error) {
	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := audioContentTypes[ext]
	if !ok {
		return model.AudioClip{}, fmt.Errorf("unsupported audio file type: %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.AudioClip{}, fmt.Errorf("failed to read audio file: %w", err)
	}

	return model.AudioClip{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// resolveService returns service when set (for testing), otherwise one built by the factory
func resolveService(service chat.ChatService) (chat.ChatService, func(), error) {
	if service != nil {
		return service, func() {}, nil
	}

	factory, err := NewServiceFactory()
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	svc, cleanup, err := factory.CreateService(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create chat service: %w", err)
	}
	return svc, cleanup, nil
}
