package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/service/mcp"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/m-mizutani/museumguide/pkg/tool/exhibit"
	"github.com/m-mizutani/museumguide/pkg/tool/harvard"
	historytool "github.com/m-mizutani/museumguide/pkg/tool/history"
	"github.com/m-mizutani/museumguide/pkg/tool/stats"
	"github.com/m-mizutani/museumguide/pkg/usecase/artwork"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg       config
		image     string
		title     string
		artist    string
		year      string
		mcpConfig string
	)

	tools := []tool.Tool{
		exhibit.New(),
		historytool.New(),
		harvard.New(),
		stats.New(),
	}

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "image",
			Usage:       "Photo of the artwork to talk about",
			Destination: &image,
		},
		&cli.StringFlag{
			Name:        "title",
			Usage:       "Title of the artwork when no photo is given",
			Destination: &title,
		},
		&cli.StringFlag{
			Name:        "artist",
			Usage:       "Artist of the artwork",
			Destination: &artist,
		},
		&cli.StringFlag{
			Name:        "year",
			Usage:       "Year of the artwork",
			Destination: &year,
		},
		&cli.StringFlag{
			Name:        "mcp-config",
			Usage:       "YAML file listing MCP servers whose tools are offered to the model",
			Sources:     cli.EnvVars("MUSEUMGUIDE_MCP_CONFIG"),
			Destination: &mcpConfig,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, exportFlags(&cfg)...)
	flags = append(flags, tool.New(tools...).Flags()...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Ask questions about an artwork",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			if image == "" && title == "" {
				return goerr.New("--image or --title is required")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			dir, err := cfg.newDirectory()
			if err != nil {
				return err
			}
			gemini, err := cfg.newGemini(ctx)
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

			provider, err := mcp.LoadAndConnect(ctx, mcpConfig)
			if err != nil {
				return goerr.Wrap(err, "failed to load MCP servers")
			}
			all := tools
			if provider != nil {
				defer provider.Close()
				all = append(append([]tool.Tool{}, tools...), provider)
			}

			registry := tool.New(all...)
			if err := registry.Init(ctx, &tool.Client{
				Directory: dir,
				Repo:      repo,
				Storage:   storage,
				Exporter:  exporter,
			}); err != nil {
				return goerr.Wrap(err, "failed to initialize tools")
			}
			logging.From(ctx).Debug("tools enabled", "tools", registry.EnabledTools())

			uc := artwork.New(repo, gemini,
				artwork.WithStorage(storage),
				artwork.WithRegistry(registry),
				artwork.WithLanguage(cfg.language),
				artwork.WithOutput(w),
			)

			var target *model.Artwork
			if image != "" {
				target, err = identifyImage(ctx, uc, image)
				if err != nil {
					return err
				}
			} else {
				target = &model.Artwork{
					ID:        model.NewArtworkID(),
					Title:     title,
					Artist:    artist,
					Year:      year,
					ScannedAt: now(),
				}
			}
			printArtwork(w, target)

			session, err := uc.NewSession(ctx, target)
			if err != nil {
				return goerr.Wrap(err, "failed to start chat session")
			}
			defer func() {
				if err := session.Close(ctx); err != nil {
					logging.From(ctx).Warn("failed to archive chat transcript", "error", err)
				}
			}()

			return chatLoop(ctx, w, session)
		},
	}
}

func chatLoop(ctx context.Context, w io.Writer, session *artwork.Session) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36m>\033[0m ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return goerr.Wrap(err, "failed to initialize readline")
	}
	defer rl.Close()

	fmt.Fprintf(w, "\n💬 Ask anything about this artwork. Type 'exit' to quit.\n")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to read input")
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		sp.Suffix = " thinking..."
		sp.Start()
		answer, err := session.Ask(ctx, question)
		sp.Stop()

		if err != nil {
			logging.From(ctx).Error("failed to answer", "error", err)
			fmt.Fprintln(w, "⚠️  Sorry, I could not answer that. Please try again.")
			continue
		}

		fmt.Fprintf(w, "\n%s\n\n", answer)
	}

	fmt.Fprintf(w, "\nChat session %s closed\n", session.ID())
	return nil
}
