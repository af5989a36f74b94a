package commands

import (
	"context"
	"fmt"

	"github.com/agfs-project/agfs-shell/internal/build"
	"github.com/agfs-project/agfs-shell/internal/session"
)

func init() {
	Register(&Command{
		Name:        "version",
		Description: "Print version information",
		Usage:       "version",
		Run:         versionCmd,
	})
}

func versionCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fmt.Fprintf(env.Stdout, "agfs-shell version %s\n", build.Version)
	return nil
}
