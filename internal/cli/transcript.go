package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"watchask/internal/config"
)

// NewTranscriptCmd fetches and prints the caption transcript for a video,
// useful for checking what a quiz would be built from.
func NewTranscriptCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <url>",
		Short: "Print the resolved caption transcript for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscript(cmd.Context(), *configPath, args[0])
		},
	}
}

func runTranscript(ctx context.Context, configPath, rawURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	resolver := newResolver(cfg)
	transcript, err := resolver.Resolve(ctx, rawURL)
	if err != nil {
		return err
	}

	fmt.Printf("language: %s (%s)\n", transcript.LanguageName(), transcript.LanguageCode)
	for _, f := range transcript.Fragments {
		fmt.Printf("[%7.1f +%5.1f] %s\n", f.Start, f.Duration, f.Text)
	}
	return nil
}
