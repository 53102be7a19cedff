package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/recommend"
	"github.com/urfave/cli/v3"
)

func recommendCommand() *cli.Command {
	var (
		cfg       config
		interests []string
		lat, lon  float64
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "interests",
			Aliases:     []string{"i"},
			Usage:       "Interest tags. Saved preferences are used when omitted",
			Sources:     cli.EnvVars("MUSEUMGUIDE_INTERESTS"),
			Destination: &interests,
		},
		&cli.FloatFlag{
			Name:        "lat",
			Usage:       "Latitude to find the museum by position",
			Value:       math.NaN(),
			Destination: &lat,
		},
		&cli.FloatFlag{
			Name:        "lon",
			Usage:       "Longitude to find the museum by position",
			Value:       math.NaN(),
			Destination: &lon,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, trackerFlags(&cfg)...)

	return &cli.Command{
		Name:      "recommend",
		Usage:     "Recommend exhibits of a museum for your interests",
		ArgsUsage: "[museum-id]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			dir, err := cfg.newDirectory()
			if err != nil {
				return err
			}

			var museum *model.Museum
			switch {
			case c.Args().Len() > 0:
				museum, err = dir.Get(c.Args().First())
				if err != nil {
					return err
				}

			case !math.IsNaN(lat) && !math.IsNaN(lon):
				m, distance, found := dir.Nearest(lat, lon, cfg.radius)
				if !found {
					fmt.Fprintf(c.Root().Writer, "No museum within %.0fm\n", cfg.radius)
					return nil
				}
				fmt.Fprintf(c.Root().Writer, "📍 %.0fm from %s\n", distance, m.Name)
				museum = m

			default:
				return goerr.New("museum-id or --lat/--lon is required")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			selected, err := resolveInterests(ctx, repo, interests)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "🏛️  %s\n", museum.Name)
			for _, e := range recommend.Recommend(museum, selected) {
				fmt.Fprintf(w, "  • %s @ %s\n", e.Name, e.Location)
				if e.Description != "" {
					fmt.Fprintf(w, "    %s\n", e.Description)
				}
			}

			return nil
		},
	}
}
