package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewBookmarksCmd creates the bookmarks command group.
func NewBookmarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Manage frame bookmarks",
	}
	cmd.AddCommand(newBookmarksListCmd())
	cmd.AddCommand(newBookmarksAddCmd())
	cmd.AddCommand(newBookmarksRemoveCmd())
	return cmd
}

func newBookmarksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your bookmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			bookmarks, err := a.client.ListBookmarks(cmd.Context())
			if err != nil {
				return err
			}
			if len(bookmarks) == 0 {
				fmt.Println("No bookmarks.")
				return nil
			}
			for _, b := range bookmarks {
				fmt.Printf("%s  story %s frame %d", b.ID, b.StoryID, b.FrameNumber+1)
				if b.Comments != "" {
					fmt.Printf("  %q", b.Comments)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func newBookmarksAddCmd() *cobra.Command {
	var comments string
	cmd := &cobra.Command{
		Use:   "add <story-id> <frame-number>",
		Short: "Bookmark a frame",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			frame, err := strconv.Atoi(args[1])
			if err != nil || frame < 1 {
				return fmt.Errorf("frame number must be a positive integer, got %q", args[1])
			}
			bookmark, err := a.client.AddBookmark(cmd.Context(), args[0], frame-1, comments)
			if err != nil {
				return err
			}
			fmt.Printf("Bookmarked frame %d of story %s (id %s)\n", frame, args[0], bookmark.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&comments, "comments", "c", "", "note to store with the bookmark")
	return cmd
}

func newBookmarksRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <bookmark-id>",
		Short: "Remove a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.client.DeleteBookmark(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Bookmark removed.")
			return nil
		},
	}
}
