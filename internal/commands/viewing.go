package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
	"github.com/gabriel-vasile/mimetype"
)

func init() {
	Register(&Command{
		Name:                "cat",
		Description:         "Concatenate and print files to standard output",
		Usage:               "cat [file]...\n\nWith no args, copies stdin to stdout.\nWith args, reads each remote file's whole content, then writes it to stdout.\n\nExamples:\n  cat readme.txt\n  cat file1.txt file2.txt\n  echo hi | cat",
		Run:                 cat,
		NeedsPathResolution: true,
		SupportsStreaming:   true,
	})
}

func cat(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) == 0 {
		_, err := io.Copy(env.Stdout, env.Stdin)
		return err
	}

	for _, path := range args {
		resolved, err := s.ResolvePathArg(path)
		if err != nil {
			return fmt.Errorf("cat: %v", err)
		}
		entry, err := s.Client.Stat(ctx, resolved)
		if err != nil {
			return fmt.Errorf("cat: %s", formatClientError(err, path))
		}
		if entry.IsDir {
			fmt.Fprintf(env.Stderr, "cat: %s: Is a directory\n", path)
			continue
		}

		if err := catOne(ctx, s, env, resolved); err != nil {
			return fmt.Errorf("cat: %s: %w", path, err)
		}
	}
	return nil
}

// catOne reads the whole file into memory before writing anything (it does
// not write chunk by chunk), then highlights it when chroma finds a lexer
// for a textual file and passes the raw bytes through otherwise — the
// spec's "on decode failure for text consumers, pass raw bytes through".
func catOne(ctx context.Context, s *session.Session, env *ExecutionEnv, path string) error {
	r, err := s.Client.Cat(ctx, path, agfsapi.CatOptions{Offset: 0, Size: -1, Stream: true})
	if err != nil {
		return err
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	mtype := mimetype.Detect(content)
	isText := utf8.Valid(content) && (mtype == nil || mtypeIsText(mtype.String()))

	if !isText {
		_, err := env.Stdout.Write(content)
		return err
	}

	highlighted := ui.Highlight(string(content), path)
	if _, err := io.WriteString(env.Stdout, highlighted); err != nil {
		return err
	}
	if len(highlighted) > 0 && highlighted[len(highlighted)-1] != '\n' {
		fmt.Fprintln(env.Stdout)
	}
	return nil
}

func mtypeIsText(mt string) bool {
	return len(mt) >= 5 && mt[:5] == "text/" || mt == "application/json" || mt == "application/xml" || mt == "application/x-sh"
}

func formatClientError(err error, path string) string {
	var aerr *agfsapi.Error
	if errors.As(err, &aerr) {
		switch aerr.Kind {
		case agfsapi.ErrNotFound:
			return path + ": No such file or directory"
		case agfsapi.ErrPermissionDenied:
			return path + ": Permission denied"
		case agfsapi.ErrNotADirectory:
			return path + ": Not a directory"
		case agfsapi.ErrTransport:
			return "AGFS server not running"
		}
	}
	return err.Error()
}
