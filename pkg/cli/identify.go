package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/usecase/artwork"
	"github.com/urfave/cli/v3"
)

func identifyCommand() *cli.Command {
	var (
		cfg    config
		record bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "record",
			Aliases:     []string{"r"},
			Usage:       "Save the result into the scan history",
			Destination: &record,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "identify",
		Usage:     "Identify an artwork from a photo",
		ArgsUsage: "<image-file>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if c.Args().Len() != 1 {
				return goerr.New("image file is required")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			uc := artwork.New(repo, gemini,
				artwork.WithLanguage(cfg.language),
				artwork.WithOutput(c.Root().Writer),
			)

			a, err := identifyImage(ctx, uc, c.Args().First())
			if err != nil {
				return err
			}
			printArtwork(c.Root().Writer, a)

			if record {
				recorded, err := uc.Record(ctx, a)
				if err != nil {
					return err
				}
				if recorded {
					fmt.Fprintln(c.Root().Writer, "\n📚 Saved to history")
				} else {
					fmt.Fprintln(c.Root().Writer, "\n📚 Already in history")
				}
			}

			return nil
		},
	}
}

func identifyImage(ctx context.Context, uc *artwork.UseCase, path string) (*model.Artwork, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read image", goerr.V("path", path))
	}

	a, err := uc.Identify(ctx, image, http.DetectContentType(image))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to identify artwork", goerr.V("path", path))
	}
	return a, nil
}
