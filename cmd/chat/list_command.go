package chat

import (
	"fmt"

	"github.com/Taichi-iskw/voice-support/internal/service/chat"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list messages command
func NewListCommand(service chat.ChatService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [SESSION_ID]",
		Short: "List the messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]

			format, _ := cmd.Flags().GetString("format")
			formatter, err := GetFormatter(format)
			if err != nil {
				return err
			}

			chatService, cleanup, err := resolveService(service)
			if err != nil {
				return err
			}
			defer cleanup()

			messages, err := chatService.History(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to list messages: %w", err)
			}

			if len(messages) == 0 && format != "json" {
				cmd.Println("No messages found for session", sessionID)
				return nil
			}

			out, err := formatter.Format(messages)
			if err != nil {
				return err
			}
			cmd.Print(out)
			return nil
		},
	}

	cmd.Flags().String("format", "text", "Output format (text, json)")

	return cmd
}
