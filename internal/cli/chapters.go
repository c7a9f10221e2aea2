package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/chapterdesk/internal/backend"
	"github.com/mrlokans/chapterdesk/internal/config"
)

// ChaptersCommand lists the chapters of a book or deletes one.
type ChaptersCommand struct {
	BookID   uint
	DeleteID uint
	BaseURL  string

	out io.Writer
}

func NewChaptersCommand() *ChaptersCommand {
	return &ChaptersCommand{out: os.Stdout}
}

func (cmd *ChaptersCommand) ParseFlags(args []string) error {
	defaults := config.NewConfig()
	fs := flag.NewFlagSet("chapters", flag.ExitOnError)

	fs.UintVar(&cmd.BookID, "book", 0, "List chapters of this book")
	fs.UintVar(&cmd.DeleteID, "delete", 0, "Delete the chapter with this ID")
	fs.StringVar(&cmd.BaseURL, "server", defaults.Author.BaseURL, "Backend base URL")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s chapters [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List or delete chapters stored by the backend.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s chapters -book 3\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s chapters -delete 12\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if (cmd.BookID == 0) == (cmd.DeleteID == 0) {
		fs.Usage()
		return fmt.Errorf("exactly one of -book or -delete is required")
	}
	return nil
}

func (cmd *ChaptersCommand) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cmd.run(ctx)
}

func (cmd *ChaptersCommand) run(ctx context.Context) error {
	if cmd.out == nil {
		cmd.out = os.Stdout
	}
	client, err := backend.NewClient(cmd.BaseURL)
	if err != nil {
		return err
	}

	if cmd.DeleteID != 0 {
		if _, err := client.FetchToken(ctx); err != nil {
			return fmt.Errorf("failed to fetch anti-forgery token: %w", err)
		}
		err := client.DeleteChapter(ctx, cmd.DeleteID)
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Errorf("chapter %d does not exist", cmd.DeleteID)
		}
		if err != nil {
			return fmt.Errorf("failed to delete chapter: %w", err)
		}
		fmt.Fprintf(cmd.out, "Deleted chapter %d\n", cmd.DeleteID)
		return nil
	}

	chapters, err := client.Chapters(ctx, cmd.BookID)
	if errors.Is(err, backend.ErrNotFound) {
		return fmt.Errorf("book %d does not exist", cmd.BookID)
	}
	if err != nil {
		return fmt.Errorf("failed to list chapters: %w", err)
	}
	if len(chapters) == 0 {
		fmt.Fprintln(cmd.out, "No chapters yet")
		return nil
	}
	for _, ch := range chapters {
		number := "-"
		if ch.ChapterNumber != nil {
			number = fmt.Sprint(*ch.ChapterNumber)
		}
		fmt.Fprintf(cmd.out, "%4d  %3s  %-6s  %s\n", ch.ID, number, ch.ContentType, ch.ChapterTitle)
	}
	return nil
}
