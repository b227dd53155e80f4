package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Taichi-iskw/voice-support/internal/service/chat"
)

const (
	defaultMaxAudioBytes = 25 << 20
	shutdownTimeout      = 15 * time.Second
)

// Options configures the HTTP API
type Options struct {
	Port          int
	CORSOrigins   []string
	MaxAudioBytes int64
}

// NewRouter builds the HTTP API around svc
func NewRouter(svc chat.ChatService, opts Options) *chi.Mux {
	if opts.MaxAudioBytes <= 0 {
		opts.MaxAudioBytes = defaultMaxAudioBytes
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(cors.Handler(corsOptions(opts.CORSOrigins)))

	h := NewChatHandler(svc, opts.MaxAudioBytes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", Health)
		r.Post("/sentiment", h.Sentiment)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Post("/recognize", h.Recognize)
			r.Get("/messages", h.ListMessages)
			r.Delete("/messages", h.ClearMessages)
		})
	})

	return r
}

// Run serves handler on port until ctx is done, then shuts down gracefully
func Run(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}
