package shell

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/session"
)

var (
	cmdSubstRe  = regexp.MustCompile(`\$\(([^)]+)\)`)
	backtickRe  = regexp.MustCompile("`([^`]+)`")
	bracedVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	simpleVarRe = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// ExpandWord applies $?, $(command)/`command` substitution, and $VAR/
// ${VAR} expansion to a single word, in that order (matching a POSIX
// shell's own precedence: command substitutions run before the
// variables inside their own output would ever be re-expanded).
func ExpandWord(ctx context.Context, s *session.Session, word string) (string, error) {
	word = strings.ReplaceAll(word, "$?", s.Env["?"])

	var substErr error
	word = cmdSubstRe.ReplaceAllStringFunc(word, func(m string) string {
		if substErr != nil {
			return m
		}
		inner := cmdSubstRe.FindStringSubmatch(m)[1]
		out, err := captureCommandOutput(ctx, s, inner)
		if err != nil {
			substErr = err
			return m
		}
		return out
	})
	if substErr != nil {
		return "", substErr
	}

	word = backtickRe.ReplaceAllStringFunc(word, func(m string) string {
		if substErr != nil {
			return m
		}
		inner := backtickRe.FindStringSubmatch(m)[1]
		out, err := captureCommandOutput(ctx, s, inner)
		if err != nil {
			substErr = err
			return m
		}
		return out
	})
	if substErr != nil {
		return "", substErr
	}

	word = bracedVarRe.ReplaceAllStringFunc(word, func(m string) string {
		name := bracedVarRe.FindStringSubmatch(m)[1]
		return s.Env[name]
	})
	word = simpleVarRe.ReplaceAllStringFunc(word, func(m string) string {
		name := simpleVarRe.FindStringSubmatch(m)[1]
		return s.Env[name]
	})

	return word, nil
}

// ExpandVariables is the subset of ExpandWord used where a command
// substitution pass doesn't make sense (for-loop item lists are expanded
// this way in the teacher shell's original_source, matching bash's own
// restriction against running arbitrary commands inside a `for ... in`
// header).
func ExpandVariables(s *session.Session, text string) string {
	text = strings.ReplaceAll(text, "$?", s.Env["?"])
	text = bracedVarRe.ReplaceAllStringFunc(text, func(m string) string {
		return s.Env[bracedVarRe.FindStringSubmatch(m)[1]]
	})
	text = simpleVarRe.ReplaceAllStringFunc(text, func(m string) string {
		return s.Env[simpleVarRe.FindStringSubmatch(m)[1]]
	})
	return text
}

// expandWords runs ExpandWord over every argument of a parsed segment
// before glob expansion sees them.
func expandWords(ctx context.Context, s *session.Session, args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		expanded, err := ExpandWord(ctx, s, a)
		if err != nil {
			return nil, err
		}
		out[i] = expanded
	}
	return out, nil
}

// captureCommandOutput runs a command chain with its final stage's
// stdout captured to a buffer instead of the terminal, for $(...) /
// backtick substitution. Exactly one trailing newline is trimmed from
// the captured output; any further trailing newlines are kept.
func captureCommandOutput(ctx context.Context, s *session.Session, cmdline string) (string, error) {
	chain, err := ParseCommandChain(cmdline)
	if err != nil {
		return "", err
	}
	if chain == nil || len(chain.Commands) == 0 {
		return "", nil
	}

	last := chain.Commands[len(chain.Commands)-1].Pipeline
	if last == nil || len(last.Segments) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	last.Segments[len(last.Segments)-1].CaptureStdout = &buf

	if err := chain.Execute(ctx, s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
