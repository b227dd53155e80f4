package cmd

import (
	"github.com/Taichi-iskw/voice-support/cmd/chat"
)

func init() {
	// Services are built from configuration when a subcommand runs
	rootCmd.AddCommand(chat.NewChatCommand(nil))
}
