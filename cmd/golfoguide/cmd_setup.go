package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/golfoguide/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("Golfoguide Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.LLM.BaseURL = prompt(scanner, "LLM base URL", cfg.LLM.BaseURL)
		cfg.LLM.APIKey = prompt(scanner, "LLM API key", cfg.LLM.APIKey)
		cfg.LLM.Model = prompt(scanner, "LLM model name", cfg.LLM.Model)

		cfg.CMS.BaseURL = prompt(scanner, "CMS base URL", cfg.CMS.BaseURL)
		cfg.CMS.Token = prompt(scanner, "CMS read token", cfg.CMS.Token)

		maxStepsStr := prompt(scanner, "Max tool steps per turn", strconv.Itoa(cfg.MaxSteps))
		if n, err := strconv.Atoi(maxStepsStr); err == nil && n > 0 {
			cfg.MaxSteps = n
		}

		cfg.Telegram.Token = prompt(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
