package cli

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/m-mizutani/museumguide/pkg/repository"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := newApp(nil).Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// newApp builds the command tree. A nil writer means stdout.
func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "museumguide",
		Usage:  "Museum companion: visit tracking, artwork recognition and art Q&A",
		Writer: w,
		Commands: []*cli.Command{
			museumsCommand(),
			recommendCommand(),
			trackCommand(),
			visitsCommand(),
			identifyCommand(),
			historyCommand(),
			interestsCommand(),
			chatCommand(),
			statsCommand(),
		},
	}
}

// memoryRepo is shared by every command run in this process when no Firestore
// project is configured.
var memoryRepo = sync.OnceValue(func() *repository.Memory {
	return repository.NewMemory()
})

// splitTags accepts both repeated flags and comma separated values
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
