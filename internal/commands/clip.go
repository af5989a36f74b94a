package commands

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/atotto/clipboard"
)

func init() {
	Register(&Command{
		Name:                "clip",
		Description:         "Copy a file's content to the local clipboard",
		Usage:               "clip <file>\n\nReads the file from AGFS and writes its content to the local\nsystem clipboard. Binary content is rejected.",
		Run:                 clipCmd,
		NeedsPathResolution: true,
	})
}

func clipCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: clip <file>")
	}

	content, err := readFileToString(ctx, s, args[0])
	if err != nil {
		return err
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("clip: %s: binary content is not copied to the clipboard", args[0])
	}

	if err := clipboard.WriteAll(content); err != nil {
		return fmt.Errorf("clip: %v", err)
	}
	fmt.Fprintf(env.Stdout, "copied %s to clipboard\n", args[0])
	return nil
}
