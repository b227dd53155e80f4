package chat

import (
	"github.com/Taichi-iskw/voice-support/internal/service/chat"
	"github.com/spf13/cobra"
)

// NewChatCommand creates the main chat command. A nil service is built
// from configuration when a subcommand runs.
func NewChatCommand(service chat.ChatService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Manage support chat sessions",
		Long:  `Recognize speech into a support session, list its history and clear it`,
	}

	// Add subcommands
	cmd.AddCommand(NewRecognizeCommand(service))
	cmd.AddCommand(NewListCommand(service))
	cmd.AddCommand(NewClearCommand(service))

	return cmd
}
