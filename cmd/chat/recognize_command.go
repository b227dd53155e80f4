package chat

import (
	"fmt"

	"github.com/Taichi-iskw/voice-support/internal/model"
	"github.com/Taichi-iskw/voice-support/internal/service/chat"
	"github.com/spf13/cobra"
)

// NewRecognizeCommand creates the command that adds a spoken message to a session
func NewRecognizeCommand(service chat.ChatService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recognize [SESSION_ID] [AUDIO_FILE]",
		Short: "Transcribe, translate and record an audio clip in a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, path := args[0], args[1]

			roleFlag, _ := cmd.Flags().GetString("role")
			format, _ := cmd.Flags().GetString("format")

			role, err := model.ParseRole(roleFlag)
			if err != nil {
				return err
			}
			formatter, err := GetFormatter(format)
			if err != nil {
				return err
			}
			clip, err := ReadClip(path)
			if err != nil {
				return err
			}

			chatService, cleanup, err := resolveService(service)
			if err != nil {
				return err
			}
			defer cleanup()

			msg, err := chatService.Recognize(cmd.Context(), sessionID, role, clip)
			if err != nil {
				return fmt.Errorf("failed to recognize audio: %w", err)
			}

			out, err := formatter.Format([]*model.ChatMessage{msg})
			if err != nil {
				return err
			}
			cmd.Print(out)
			return nil
		},
	}

	cmd.Flags().String("role", string(model.RoleUser), "Speaker role (User or Support)")
	cmd.Flags().String("format", "text", "Output format (text, json)")

	return cmd
}
