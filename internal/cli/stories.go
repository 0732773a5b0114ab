package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStoriesCmd creates the stories command.
func NewStoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stories",
		Short: "List your stories",
		RunE:  runStories,
	}
}

func runStories(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	stories, err := a.client.ListStories(cmd.Context())
	if err != nil {
		return err
	}

	if len(stories) == 0 {
		fmt.Println("No stories yet. Start one with 'clio snap'.")
		return nil
	}

	for _, s := range stories {
		marker := " "
		if s.IsCurrent {
			marker = "*"
		}
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s %-40s  %3d frames  %s\n", marker, title, s.FrameCount, s.Slug)
	}
	return nil
}

// NewStoryCmd creates the story command.
func NewStoryCmd() *cobra.Command {
	var byID bool
	cmd := &cobra.Command{
		Use:   "story <slug>",
		Short: "Show a story's frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStory(cmd, args[0], byID)
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "treat the argument as a story id instead of a slug")
	return cmd
}

func runStory(cmd *cobra.Command, arg string, byID bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	session := a.session(nil)
	defer session.Close()

	if err := session.LoadStory(cmd.Context(), storyRef(arg, byID), 0); err != nil {
		return err
	}

	snap := session.Snapshot()
	title := snap.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Printf("%s  (%d frames)\n", title, len(snap.Frames))
	if snap.IsReadOnly {
		fmt.Println("[read-only]")
	}
	fmt.Println()

	for i, frame := range snap.Frames {
		fmt.Printf("--- frame %d ---\n", i+1)
		if frame.Image != nil && frame.Image.URL != "" {
			fmt.Printf("image: %s\n", a.resolver.ResolveURL(frame.Image.URL))
		}
		if frame.Video != nil && frame.Video.URL != "" {
			fmt.Printf("video: %s\n", a.resolver.ResolveURL(frame.Video.URL))
		}
		if frame.Text != "" {
			fmt.Println(frame.Text)
		}
		fmt.Println()
	}
	return nil
}
