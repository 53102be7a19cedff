package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func statsCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, exportFlags(&cfg)...)

	return &cli.Command{
		Name:  "stats",
		Usage: "Show per-museum statistics of exported visits",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			exporter, err := cfg.newExporter(ctx)
			if err != nil {
				return err
			}
			if exporter == nil {
				return goerr.New("bigquery-dataset is required")
			}

			stats, err := exporter.MuseumStats(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to aggregate visits")
			}

			w := c.Root().Writer
			if len(stats) == 0 {
				fmt.Fprintln(w, "No exported visits")
				return nil
			}
			for _, s := range stats {
				avg := time.Duration(s.AvgDuration * float64(time.Second)).Round(time.Second)
				fmt.Fprintf(w, "%s\t%s\t%d visit(s)\t%d artwork(s)\tavg %s\n",
					s.MuseumID, s.MuseumName, s.Visits, s.Artworks, avg)
			}
			return nil
		},
	}
}
