package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/session"
)

func init() {
	Register(&Command{
		Name:        "export",
		Description: "Set a shell variable",
		Usage: `export name=value
export

Without arguments, lists all variables currently set.
With name=value, sets the variable in the session environment so
later $name expansions and subshell-free command substitutions see it.

Examples:
  export ROOT=/data
  export`,
		Run:        exportCmd,
		NoPipeline: true,
	})
	Register(&Command{
		Name:        "unset",
		Description: "Remove a shell variable",
		Usage:       "unset <name>\n\nRemoves name from the session environment.",
		Run:         unsetCmd,
		NoPipeline:  true,
	})
}

// exportCmd and unsetCmd are the only executors besides the engine
// itself permitted to mutate Session.env directly (§5 "Shared
// resources") — acceptable because stages never run concurrently.
func exportCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) == 0 {
		names := make([]string, 0, len(s.Env))
		for name := range s.Env {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(env.Stdout, "%s=%s\n", name, s.Env[name])
		}
		return nil
	}

	for _, arg := range args {
		idx := strings.Index(arg, "=")
		if idx <= 0 {
			return fmt.Errorf("export: invalid assignment %q, expected name=value", arg)
		}
		name := arg[:idx]
		if name == "?" {
			return fmt.Errorf("export: \"?\" is reserved")
		}
		s.Env[name] = arg[idx+1:]
	}
	return nil
}

func unsetCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: unset <name>")
	}
	for _, name := range args {
		if name == "?" {
			return fmt.Errorf("unset: \"?\" is reserved")
		}
		delete(s.Env, name)
	}
	return nil
}
