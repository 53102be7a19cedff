package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/usecase/visit"
	"github.com/urfave/cli/v3"
)

func trackCommand() *cli.Command {
	var (
		cfg       config
		interests []string
		interval  time.Duration
		keepOpen  bool
		workers   int64
		policyDir string
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "interests",
			Aliases:     []string{"i"},
			Usage:       "Interest tags. Saved preferences are used when omitted",
			Sources:     cli.EnvVars("MUSEUMGUIDE_INTERESTS"),
			Destination: &interests,
		},
		&cli.DurationFlag{
			Name:        "interval",
			Usage:       "Delay between position records to mimic a live feed",
			Destination: &interval,
		},
		&cli.BoolFlag{
			Name:        "keep-open",
			Usage:       "Do not close the last visit at end of input",
			Destination: &keepOpen,
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Number of visits processed concurrently",
			Value:       2,
			Sources:     cli.EnvVars("MUSEUMGUIDE_WORKERS"),
			Destination: &workers,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego files deciding whether to narrate a visit",
			Sources:     cli.EnvVars("MUSEUMGUIDE_POLICY_DIR"),
			Destination: &policyDir,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, trackerFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, exportFlags(&cfg)...)

	return &cli.Command{
		Name:      "track",
		Usage:     "Replay a position stream and narrate every finished visit",
		ArgsUsage: "[file|-]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			var r io.Reader = c.Root().Reader
			if path := c.Args().First(); path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return goerr.Wrap(err, "failed to open position file", goerr.V("path", path))
				}
				defer f.Close()
				r = f
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			dir, err := cfg.newDirectory()
			if err != nil {
				return err
			}
			gemini, err := cfg.newOptionalGemini(ctx)
			if err != nil {
				return err
			}
			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}
			exporter, err := cfg.newExporter(ctx)
			if err != nil {
				return err
			}
			engine, err := newPolicy(ctx, policyDir)
			if err != nil {
				return err
			}

			selected, err := resolveInterests(ctx, repo, interests)
			if err != nil {
				return err
			}

			uc := visit.New(repo,
				visit.WithGemini(gemini),
				visit.WithStorage(storage),
				visit.WithExporter(exporter),
				visit.WithPolicy(engine),
				visit.WithDirectory(dir),
				visit.WithRadius(cfg.radius),
				visit.WithWorkers(int(workers)),
				visit.WithLanguage(cfg.language),
				visit.WithOutput(c.Root().Writer),
			)

			result, err := uc.Track(ctx, r, visit.TrackOptions{
				Interests: selected,
				Interval:  interval,
				KeepOpen:  keepOpen,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to track visits")
			}

			fmt.Fprintf(c.Root().Writer, "✅ %d fix(es), %d command(s), %d skipped line(s), %d visit(s) recorded\n",
				result.Stats.Fixes, result.Stats.Commands, result.Stats.Skipped, len(result.Visits))
			for _, v := range result.Visits {
				fmt.Fprintf(c.Root().Writer, "   %s\t%s\t%d artwork(s)\n", v.ID, v.MuseumName, len(v.Artworks))
			}

			return nil
		},
	}
}
