package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/golfoguide/pkg/llm"
)

func init() {
	rootCmd.AddCommand(askCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant a one-shot question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		if err := cfg.Validate(); err != nil {
			return err
		}

		orch, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		result, err := orch.Run(cmd.Context(), []llm.Message{
			llm.TextMessage(llm.RoleUser, question),
		})
		if err != nil {
			return fmt.Errorf("turn failed: %w", err)
		}

		for _, inv := range result.Invocations {
			fmt.Fprintf(os.Stderr, "[tool %s]\n", inv.Tool)
		}
		fmt.Fprintln(os.Stdout, result.Text)
		return nil
	},
}
