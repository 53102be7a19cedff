package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/urfave/cli/v3"
)

func interestsCommand() *cli.Command {
	return &cli.Command{
		Name:  "interests",
		Usage: "Manage saved interest tags",
		Commands: []*cli.Command{
			interestsShowCommand(),
			interestsSetCommand(),
			interestsTagsCommand(),
		},
	}
}

func interestsShowCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "show",
		Usage: "Show saved interests",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			prefs, err := repo.GetPreferences(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to load preferences")
			}

			tags := prefs.InterestSet().Tags()
			if len(tags) == 0 {
				fmt.Fprintln(c.Root().Writer, "No interests saved")
				return nil
			}
			fmt.Fprintf(c.Root().Writer, "Interests: %s\n", strings.Join(tags, ", "))
			return nil
		},
	}
}

func interestsSetCommand() *cli.Command {
	var (
		cfg    config
		strict bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "strict",
			Usage:       "Reject tags that no exhibit in the directory uses",
			Destination: &strict,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "set",
		Usage:     "Replace saved interests. No tags clears them",
		ArgsUsage: "[tag...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			tags := model.NewInterests(splitTags(c.Args().Slice())...).Tags()

			if strict {
				dir, err := cfg.newDirectory()
				if err != nil {
					return err
				}
				known := model.NewInterests(dir.AvailableInterests()...)
				for _, t := range tags {
					if !known.Contains(t) {
						return goerr.New("unknown interest tag", goerr.V("tag", t))
					}
				}
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			prefs, err := repo.GetPreferences(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to load preferences")
			}
			prefs.Interests = tags
			prefs.UpdatedAt = now()

			if err := repo.PutPreferences(ctx, prefs); err != nil {
				return goerr.Wrap(err, "failed to save preferences")
			}

			if len(tags) == 0 {
				fmt.Fprintln(c.Root().Writer, "Interests cleared")
				return nil
			}
			fmt.Fprintf(c.Root().Writer, "Interests saved: %s\n", strings.Join(tags, ", "))
			return nil
		},
	}
}

func interestsTagsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "tags",
		Usage: "List interest tags used by exhibits",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(ctx)

			dir, err := cfg.newDirectory()
			if err != nil {
				return err
			}
			for _, t := range dir.AvailableInterests() {
				fmt.Fprintln(c.Root().Writer, t)
			}
			return nil
		},
	}
}
