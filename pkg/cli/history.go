package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/usecase/artwork"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Manage the artwork scan history",
		Commands: []*cli.Command{
			historyListCommand(),
			historyClearCommand(),
		},
	}
}

func historyListCommand() *cli.Command {
	var (
		cfg    config
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of artworks to list",
			Value:       50,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List scanned artworks, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			artworks, err := artwork.New(repo, nil).History(ctx, int(offset), int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list history")
			}

			w := c.Root().Writer
			if len(artworks) == 0 {
				fmt.Fprintln(w, "History is empty")
				return nil
			}
			for _, a := range artworks {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.ScannedAt.Format(time.DateTime), a.Label(), a.Year)
			}
			return nil
		},
	}
}

func historyClearCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every scanned artwork",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			if err := artwork.New(repo, nil).ClearHistory(ctx); err != nil {
				return goerr.Wrap(err, "failed to clear history")
			}

			fmt.Fprintln(c.Root().Writer, "🗑️  History cleared")
			return nil
		},
	}
}
