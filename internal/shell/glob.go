package shell

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/commands"
	"github.com/agfs-project/agfs-shell/internal/session"
)

// ExpandGlobs expands glob patterns in arguments against the AGFS
// namespace (§4.8). policy governs what happens to a pattern that
// matches nothing.
func ExpandGlobs(ctx context.Context, s *session.Session, w io.Writer, args []string, policy commands.NoMatchPolicy) ([]string, error) {
	var expanded []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			expanded = append(expanded, arg)
			continue
		}

		resolvedPath, err := s.ResolvePathArg(arg)
		if err != nil {
			return nil, err
		}
		parentDir := filepath.Dir(resolvedPath)
		filePattern := filepath.Base(resolvedPath)

		// Directory couldn't be listed: fall through to no-match handling
		// rather than erroring, since a glob over a missing dir behaves
		// like a glob that simply matched nothing.
		s.Cache.Ensure(ctx, s.Client, parentDir)

		matches := s.Cache.MatchGlob(parentDir, filePattern)
		if len(matches) == 0 {
			switch policy {
			case commands.NoMatchError:
				return nil, fmt.Errorf("no matches for %q", arg)
			case commands.NoMatchSkip:
				continue
			case commands.NoMatchWarn:
				fmt.Fprintf(w, "%s: no matches found\n", arg)
				continue
			default: // NoMatchKeepLiteral
				expanded = append(expanded, arg)
			}
			continue
		}

		for _, match := range matches {
			full := filepath.Join(parentDir, match)
			if !filepath.IsAbs(arg) && strings.HasPrefix(full, s.CWD) {
				if rel, err := filepath.Rel(s.CWD, full); err == nil {
					expanded = append(expanded, rel)
					continue
				}
			}
			expanded = append(expanded, full)
		}
	}
	return expanded, nil
}
