package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chrisimmel/calliope-sub000/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Configure the Calliope server connection",
		Long: `Interactive setup for the Calliope server connection.

Prompts for the server URL and API key, then saves them to the
configuration file for future use. The API key is read without echo.`,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println("Clio - Setup")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("Server URL [%s]: ", cfg.Server.BaseURL)
	serverURL, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read server URL: %w", err)
	}
	serverURL = strings.TrimSpace(serverURL)
	if serverURL != "" {
		if err := config.ValidateServerURL(serverURL); err != nil {
			return err
		}
		cfg.Server.BaseURL = serverURL
	}

	fmt.Print("API key: ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if key := strings.TrimSpace(string(keyBytes)); key != "" {
		cfg.Server.APIKey = key
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configDir, _ := config.GetConfigDir()
	fmt.Println()
	fmt.Printf("Configuration saved to: %s/config.yaml\n", configDir)
	fmt.Printf("Client ID: %s\n", cfg.Server.ClientID)
	fmt.Println()
	fmt.Println("You can now run 'clio stories' to browse or 'clio snap' to start a story!")

	return nil
}
