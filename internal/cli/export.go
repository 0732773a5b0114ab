package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chrisimmel/calliope-sub000/internal/export"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	var (
		byID    bool
		format  string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "export <slug>",
		Short: "Export a story as HTML or markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], byID, format, outPath)
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "treat the argument as a story id instead of a slug")
	cmd.Flags().StringVarP(&format, "format", "f", "html", "output format: html or md")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, arg string, byID bool, format, outPath string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	storyID := arg
	if !byID {
		resolved, err := a.client.GetStoryBySlug(cmd.Context(), arg)
		if err != nil {
			return err
		}
		storyID = resolved.ID
	}
	full, err := a.client.GetStory(cmd.Context(), storyID)
	if err != nil {
		return err
	}

	var out string
	switch format {
	case "html":
		out = export.StoryHTML(full, a.resolver)
	case "md", "markdown":
		out = export.StoryMarkdown(full, a.resolver)
	default:
		return fmt.Errorf("unknown format %q: use html or md", format)
	}

	if outPath == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	fmt.Printf("Exported %q to %s\n", full.Title, outPath)
	return nil
}
