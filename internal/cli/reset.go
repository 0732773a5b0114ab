package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the current story so the next snap starts a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.client.ResetCurrentStory(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Current story cleared. The next 'clio snap' starts fresh.")
			return nil
		},
	}
}
