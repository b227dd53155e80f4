package chat

import (
	"fmt"

	"github.com/Taichi-iskw/voice-support/internal/service/chat"
	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear session command
func NewClearCommand(service chat.ChatService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [SESSION_ID]",
		Short: "Delete every message of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]

			force, _ := cmd.Flags().GetBool("force")

			// Confirmation prompt if not forced
			if !force {
				cmd.Printf("Are you sure you want to clear session %s? (y/N): ", sessionID)
				var response string
				fmt.Fscanln(cmd.InOrStdin(), &response)

				if response != "y" && response != "Y" && response != "yes" {
					cmd.Println("Clear cancelled")
					return nil
				}
			}

			chatService, cleanup, err := resolveService(service)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := chatService.Clear(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}

			cmd.Printf("Session %s cleared (%d messages deleted)\n", sessionID, n)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Clear without confirmation")

	return cmd
}
