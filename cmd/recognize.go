package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/voice-support/cmd/chat"
	"github.com/Taichi-iskw/voice-support/internal/model"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <audio-file>...",
	Short: "Transcribe and translate audio clips without recording them",
	Long: `Upload each audio clip, run a transcription job, wait for it and translate the
transcript. Use "vsupport chat recognize" to record the result in a session.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecognize,
}

var (
	recognizeRole          string
	recognizeFormat        string
	recognizeSentiment     bool
	recognizeFixedKey      string
	recognizeMaxConcurrent int
)

func init() {
	recognizeCmd.Flags().StringVar(&recognizeRole, "role", string(model.RoleUser), "speaker role (User or Support)")
	recognizeCmd.Flags().StringVar(&recognizeFormat, "format", "text", "output format (text, json)")
	recognizeCmd.Flags().BoolVar(&recognizeSentiment, "sentiment", false, "score each translation for sentiment")
	recognizeCmd.Flags().StringVar(&recognizeFixedKey, "fixed-key", "", "upload to this object key instead of a unique one")
	recognizeCmd.Flags().IntVarP(&recognizeMaxConcurrent, "max-concurrent", "j", 2, "max clips recognized at once")

	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	role, err := model.ParseRole(recognizeRole)
	if err != nil {
		return err
	}
	formatter, err := chat.GetFormatter(recognizeFormat)
	if err != nil {
		return err
	}

	clips := make([]model.AudioClip, 0, len(args))
	for _, path := range args {
		clip, err := chat.ReadClip(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		clips = append(clips, clip)
	}

	factory, err := chat.NewServiceFactory()
	if err != nil {
		return err
	}
	concurrency := recognizeMaxConcurrent
	if recognizeFixedKey != "" {
		factory.Config().Storage.FixedKey = recognizeFixedKey
	}
	if factory.Config().Storage.FixedKey != "" && concurrency > 1 {
		slog.Warn("a fixed object key serializes recognize", "key", factory.Config().Storage.FixedKey)
		concurrency = 1
	}

	p, analyzer, cleanup, err := factory.CreateRecognizer()
	if err != nil {
		return err
	}
	defer cleanup()

	// Setup signal handling for graceful cancellation.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	items := p.TranscribeAll(ctx, clips, concurrency)

	var (
		messages []*model.ChatMessage
		failed   int
	)
	for _, item := range items {
		if item.Err != nil {
			failed++
			cmd.PrintErrf("%s: %v\n", item.Clip, item.Err)
			continue
		}
		msg := &model.ChatMessage{
			Role:       role,
			JobID:      item.Result.JobID,
			Transcript: item.Result.Transcript,
			Translated: item.Result.Translated,
		}
		if recognizeSentiment && msg.Translated != "" {
			if msg.Sentiment, err = analyzer.Analyze(ctx, msg.Translated); err != nil {
				slog.Warn("sentiment analysis failed", "clip", item.Clip, "job_id", msg.JobID, "error", err)
			}
		}
		messages = append(messages, msg)
	}

	if len(messages) > 0 {
		out, err := formatter.Format(messages)
		if err != nil {
			return err
		}
		cmd.Println(out)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d clips failed", failed, len(items))
	}
	return nil
}
