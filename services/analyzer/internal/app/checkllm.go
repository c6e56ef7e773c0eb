package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stoik/lure/internal/ai"
)

var checkLLMCmd = &cobra.Command{
	Use:   "check-llm",
	Short: "Check connectivity to the configured model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := aiConfig()
		client, err := ai.NewClient(cfg, nil, newLogger())
		if err != nil {
			return err
		}

		fmt.Printf("Provider: %s\nBase URL: %s\nModel:    %s (fallback %s)\n", cfg.Provider, cfg.BaseURL, cfg.Model, cfg.FallbackModel)

		reply, err := client.Ping(context.Background())
		if err != nil {
			return fmt.Errorf("model check failed: %w", err)
		}

		fmt.Printf("✓ Model replied: %s\n", reply)
		if client.State().FallbackUsed() {
			fmt.Printf("  (answered by fallback model %s)\n", client.State().Active())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkLLMCmd)
}
