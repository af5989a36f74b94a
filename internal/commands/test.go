package commands

import (
	"context"

	"github.com/agfs-project/agfs-shell/internal/session"
)

func init() {
	Register(&Command{
		Name:        "test",
		Description: "Evaluate a file or string condition",
		Usage: `test <flag> <arg>

Flags:
  -f <path>   True if path is a regular file
  -d <path>   True if path is a directory
  -e <path>   True if path exists
  -z <str>    True if str is empty
  -n <str>    True if str is non-empty

Produces no output; exit code 0 means true, 1 means false.
Used by 'if test -f ...; then ...; fi'.`,
		Run: testCmd,
	})
}

func testCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) != 2 {
		return ErrConditionFalse
	}

	flag, arg := args[0], args[1]

	var ok bool
	switch flag {
	case "-z":
		ok = arg == ""
	case "-n":
		ok = arg != ""
	case "-f", "-d", "-e":
		path, err := s.ResolvePathArg(arg)
		if err != nil {
			return ErrConditionFalse
		}
		entry, err := s.Client.Stat(ctx, path)
		if err != nil {
			return ErrConditionFalse
		}
		switch flag {
		case "-f":
			ok = !entry.IsDir
		case "-d":
			ok = entry.IsDir
		case "-e":
			ok = true
		}
	default:
		return ErrConditionFalse
	}

	if !ok {
		return ErrConditionFalse
	}
	return nil
}
