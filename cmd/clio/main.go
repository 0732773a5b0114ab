package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chrisimmel/calliope-sub000/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "clio",
		Short: "Terminal client for Calliope illustrated stories",
		Long: `Clio - terminal client for the Calliope story service.

Capture a photo or a sound and Calliope weaves it into an illustrated
story, one frame at a time. Clio submits your captures, follows the
asynchronous generation over the realtime channel, and pages through
the finished frames.`,
		Version: version,
	}

	// Add commands
	rootCmd.AddCommand(cli.NewInitCmd())
	rootCmd.AddCommand(cli.NewStoriesCmd())
	rootCmd.AddCommand(cli.NewStoryCmd())
	rootCmd.AddCommand(cli.NewWatchCmd())
	rootCmd.AddCommand(cli.NewSnapCmd())
	rootCmd.AddCommand(cli.NewStrategiesCmd())
	rootCmd.AddCommand(cli.NewBookmarksCmd())
	rootCmd.AddCommand(cli.NewResetCmd())
	rootCmd.AddCommand(cli.NewExportCmd())

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
