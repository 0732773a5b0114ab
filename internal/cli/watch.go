package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrisimmel/calliope-sub000/internal/story"
	"github.com/chrisimmel/calliope-sub000/internal/tui"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	var byID bool
	cmd := &cobra.Command{
		Use:   "watch [slug]",
		Short: "View a story in the terminal, updating live as frames arrive",
		Long: `Open the story viewer.

Pages through the story's frames with the arrow keys and follows new
frames as the backend generates them. With no argument, opens your
current story.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			return runWatch(cmd, arg, byID)
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "treat the argument as a story id instead of a slug")
	return cmd
}

func runWatch(cmd *cobra.Command, arg string, byID bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	session := a.session(a.channel())
	defer session.Close()

	ref := storyRef(arg, byID)
	if arg == "" {
		ref, err = currentStoryRef(cmd.Context(), a)
		if err != nil {
			return err
		}
	}

	if err := session.LoadStory(cmd.Context(), ref, story.NoFrame); err != nil {
		return err
	}

	return tui.Run(session, a.resolver)
}

// currentStoryRef finds the story the server considers current for this
// client.
func currentStoryRef(ctx context.Context, a *app) (story.Ref, error) {
	stories, err := a.client.ListStories(ctx)
	if err != nil {
		return story.Ref{}, err
	}
	for _, s := range stories {
		if s.IsCurrent {
			return story.Ref{ID: s.ID}, nil
		}
	}
	return story.Ref{}, fmt.Errorf("no current story - pass a slug or start one with 'clio snap'")
}
