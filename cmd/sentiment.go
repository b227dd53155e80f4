package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/voice-support/cmd/chat"
)

var sentimentFormat string

var sentimentCmd = &cobra.Command{
	Use:   "sentiment <text>...",
	Short: "Score English text for sentiment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		factory, err := chat.NewServiceFactory()
		if err != nil {
			return err
		}

		result, err := factory.CreateAnalyzer().Analyze(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		out, err := chat.FormatSentiment(result, sentimentFormat)
		if err != nil {
			return err
		}
		cmd.Print(out)
		return nil
	},
}

func init() {
	sentimentCmd.Flags().StringVar(&sentimentFormat, "format", "text", "output format (text, json)")
	rootCmd.AddCommand(sentimentCmd)
}
