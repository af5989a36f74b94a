package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/spf13/pflag"
)

func init() {
	Register(&Command{
		Name:        "tee",
		Description: "Write stdin to files and to stdout",
		Usage: `tee [-a] <file>...

Options:
  -a    Append to files instead of overwriting

Reads stdin, writes it to every file given, then passes it through
to stdout unchanged.

Examples:
  echo hi | tee out.txt           Write "hi" to out.txt and stdout
  echo hi | tee -a log.txt        Append "hi" to log.txt`,
		Run:            teeCmd,
		SupportsStreaming: true,
	})
}

func teeCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := pflag.NewFlagSet("tee", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	appendMode := fs.BoolP("append", "a", false, "append to files")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("usage: tee [-a] <file>...")
	}

	data, err := io.ReadAll(env.Stdin)
	if err != nil {
		return err
	}

	for _, arg := range fs.Args() {
		target, err := s.ResolvePathArg(arg)
		if err != nil {
			return fmt.Errorf("tee: %v", err)
		}

		content := data
		if *appendMode {
			if existing, err := ReadAll(ctx, s, target); err == nil {
				content = append(append([]byte(nil), existing...), data...)
			}
		}

		if _, err := s.Client.Write(ctx, target, agfsapi.WriteOptions{Data: content}); err != nil {
			return fmt.Errorf("tee: cannot write '%s': %s", arg, formatClientError(err, arg))
		}
		s.Cache.Invalidate(filepath.Dir(target))
	}

	_, err = env.Stdout.Write(data)
	return err
}
