package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/usecase/visit"
	"github.com/urfave/cli/v3"
)

func visitsCommand() *cli.Command {
	return &cli.Command{
		Name:  "visits",
		Usage: "Browse finished visits",
		Commands: []*cli.Command{
			visitsListCommand(),
			visitsShowCommand(),
		},
	}
}

func visitsListCommand() *cli.Command {
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
			Usage:       "Maximum number of visits to list",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List visits, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			visits, err := visit.New(repo).List(ctx, int(offset), int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list visits")
			}

			w := c.Root().Writer
			if len(visits) == 0 {
				fmt.Fprintln(w, "No visits yet")
				return nil
			}
			for _, v := range visits {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d artwork(s)\n",
					v.ID, v.EndedAt.Format(time.DateTime), v.MuseumName,
					v.Duration().Round(time.Second), len(v.Artworks))
			}
			return nil
		},
	}
}

func visitsShowCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a visit with its narration script",
		ArgsUsage: "<visit-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if c.Args().Len() != 1 {
				return goerr.New("visit-id is required")
			}
			id := model.VisitID(c.Args().First())

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			v, err := visit.New(repo, visit.WithStorage(storage)).Show(ctx, id)
			if errors.Is(err, model.ErrNotFound) {
				fmt.Fprintf(c.Root().Writer, "Visit %s not found\n", id)
				return nil
			}
			if err != nil {
				return goerr.Wrap(err, "failed to show visit")
			}

			printVisit(c.Root().Writer, v)
			return nil
		},
	}
}
