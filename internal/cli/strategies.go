package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStrategiesCmd creates the strategies command.
func NewStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the story generation strategies available to this client",
		RunE:  runStrategies,
	}
}

func runStrategies(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	strategies, err := a.client.ListStrategies(cmd.Context())
	if err != nil {
		return err
	}

	for _, s := range strategies {
		notes := ""
		if s.IsDefaultForClient {
			notes += " (default)"
		}
		if s.IsExperimental {
			notes += " (experimental)"
		}
		fmt.Printf("%s%s\n", s.Slug, notes)
	}
	return nil
}
