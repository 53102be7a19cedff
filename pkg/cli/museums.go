package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

func museumsCommand() *cli.Command {
	var (
		cfg      config
		exhibits bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "exhibits",
			Aliases:     []string{"e"},
			Usage:       "Show exhibits of each museum",
			Destination: &exhibits,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "museums",
		Usage: "List known museums",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(ctx)

			dir, err := cfg.newDirectory()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			for _, m := range dir.Museums() {
				fmt.Fprintf(w, "%s\t%s\t%.4f,%.4f\n", m.ID, m.Name, m.Latitude, m.Longitude)
				if !exhibits {
					continue
				}
				for _, e := range m.Exhibits {
					fmt.Fprintf(w, "  - %s @ %s [%s]\n", e.Name, e.Location, strings.Join(e.Tags, ", "))
				}
			}

			return nil
		},
	}
}
