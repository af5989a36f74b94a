package shell

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/commands"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/chzyer/readline"
)

// Completer provides tab completion for commands and AGFS paths.
type Completer struct {
	Session *session.Session
}

func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	words := strings.Fields(lineStr)

	if len(words) == 0 || (len(words) == 1 && !strings.HasSuffix(lineStr, " ")) {
		prefix := ""
		if len(words) == 1 {
			prefix = words[0]
		}
		return c.completeCommand(prefix)
	}

	lastSpace := strings.LastIndex(lineStr, " ")
	partial := ""
	if lastSpace < len(lineStr)-1 {
		partial = lineStr[lastSpace+1:]
	}

	return c.completePath(partial)
}

func (c *Completer) completeCommand(prefix string) ([][]rune, int) {
	var matches []string
	seen := make(map[string]bool)
	for name, cmd := range commands.Registry {
		if cmd.Name == name && !seen[name] && strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
			seen[name] = true
		}
	}
	sort.Strings(matches)

	result := make([][]rune, len(matches))
	for i, m := range matches {
		result[i] = []rune(m[len(prefix):] + " ")
	}
	return result, len(prefix)
}

func (c *Completer) completePath(partial string) ([][]rune, int) {
	var searchDir, searchPrefix string

	switch {
	case partial == "":
		searchDir = c.Session.CWD
	case strings.HasPrefix(partial, "/"):
		if strings.HasSuffix(partial, "/") {
			searchDir = filepath.Clean(partial)
		} else {
			searchDir = filepath.Dir(partial)
			searchPrefix = filepath.Base(partial)
			if partial == "/" {
				searchDir, searchPrefix = "/", ""
			}
		}
	case strings.Contains(partial, "/"):
		if strings.HasSuffix(partial, "/") {
			searchDir = c.Session.ResolvePath(strings.TrimSuffix(partial, "/"))
		} else {
			searchDir = c.Session.ResolvePath(filepath.Dir(partial))
			searchPrefix = filepath.Base(partial)
		}
	default:
		searchDir = c.Session.CWD
		searchPrefix = partial
	}

	searchDir = filepath.Clean(searchDir)

	entries, err := c.Session.Cache.Ensure(context.Background(), c.Session.Client, searchDir)
	if err != nil {
		return nil, 0
	}

	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(strings.ToLower(e.Name), strings.ToLower(searchPrefix)) {
			if e.IsDir {
				matches = append(matches, e.Name+"/")
			} else {
				matches = append(matches, e.Name)
			}
		}
	}
	sort.Strings(matches)

	result := make([][]rune, len(matches))
	for i, m := range matches {
		suffix := m[len(searchPrefix):]
		if !strings.HasSuffix(suffix, "/") {
			suffix += " "
		}
		result[i] = []rune(suffix)
	}
	return result, len(searchPrefix)
}

func NewCompleter(s *session.Session) readline.AutoCompleter {
	return &Completer{Session: s}
}
