package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:        "health",
		Description: "Check AGFS server status",
		Usage:       "health\n\nQueries the server's health endpoint and prints its version,\nstatus, and uptime.",
		Run:         healthCmd,
	})
	Register(&Command{
		Name:                "chmod",
		Description:         "Change file mode",
		Usage:               "chmod <mode> <path>\n\nmode is an octal permission string, e.g. 644 or 0755.\n\nExamples:\n  chmod 644 file.txt\n  chmod 0755 script.sh",
		Run:                 chmodCmd,
		NeedsPathResolution: false,
	})
}

func healthCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	hi, err := ui.WithSpinner(env.Stderr, "", func() (*agfsapi.HealthInfo, error) {
		return s.Client.Health(ctx)
	})
	if err != nil {
		return fmt.Errorf("health: %s", formatClientError(err, ""))
	}

	fmt.Fprintf(env.Stdout, "%s %s\n", ui.MutedStyle.Render("version:"), hi.Version)
	fmt.Fprintf(env.Stdout, "%s %s\n", ui.MutedStyle.Render(" status:"), hi.Status)
	if hi.Uptime != "" {
		fmt.Fprintf(env.Stdout, "%s %s\n", ui.MutedStyle.Render(" uptime:"), hi.Uptime)
	}
	return nil
}

func chmodCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: chmod <mode> <path>")
	}

	mode, err := strconv.ParseUint(args[0], 8, 32)
	if err != nil {
		return fmt.Errorf("chmod: invalid mode %q", args[0])
	}

	path, err := s.ResolvePathArg(args[1])
	if err != nil {
		return fmt.Errorf("chmod: %v", err)
	}

	if err := s.Client.Chmod(ctx, path, uint32(mode)); err != nil {
		return fmt.Errorf("chmod: %s", formatClientError(err, args[1]))
	}
	s.Cache.Invalidate(path)
	return nil
}
