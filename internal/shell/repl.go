package shell

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/config"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
	"github.com/chzyer/readline"
)

// Shell is the main REPL for the AGFS shell.
type Shell struct {
	Session        *session.Session
	RL             *readline.Instance
	sessionHistory []string // Commands from current session (for !!, !-n)
}

// New creates a new Shell with the given session.
func New(s *session.Session) (*Shell, error) {
	completer := NewCompleter(s)

	historyPath, _ := config.HistoryPath()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "agfs> ",
		HistoryFile:       historyPath,
		HistorySearchFold: true,
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return nil, err
	}

	shell := &Shell{
		Session: s,
		RL:      rl,
	}

	// Set history getter on session so commands can access it
	s.HistoryGetter = shell.GetHistory

	return shell, nil
}

// buildPrompt creates the shell prompt string: "agfs:<cwd>> ", with the
// home directory collapsed to "~" the way the original tool's prompt did.
func (sh *Shell) buildPrompt() string {
	displayPath := sh.Session.CWD
	if displayPath == sh.Session.HomeDir {
		displayPath = "~"
	} else if strings.HasPrefix(displayPath, sh.Session.HomeDir+"/") {
		displayPath = "~" + displayPath[len(sh.Session.HomeDir):]
	}

	return ui.RenderPrompt("agfs:" + displayPath)
}

// Run starts the REPL loop.
func (sh *Shell) Run() {
	defer sh.RL.Close()

	ctx := context.Background()

	for {
		sh.RL.SetPrompt(sh.buildPrompt())

		line, err := sh.RL.Readline()
		if err != nil { // io.EOF or Ctrl+D
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle history expansion (!n)
		if strings.HasPrefix(line, "!") && len(line) > 1 {
			expanded, err := sh.expandHistory(line)
			if err != nil {
				fmt.Printf("agfs: %v\n", err)
				continue
			}
			line = expanded
			fmt.Println(line) // Show the expanded command
		}

		// Handle alias expansion
		if expanded, wasAlias := ExpandAlias(line, sh.Session.Aliases); wasAlias {
			line = expanded
		}

		sh.sessionHistory = append(sh.sessionHistory, line)

		// A "for"/"if" header isn't runnable on its own; read the rest of
		// the block from the secondary "> " prompt before parsing.
		switch {
		case IsForHeader(line):
			block, ok := sh.readBlock(line, "for ", "done")
			if !ok {
				continue
			}
			if _, err := ExecuteForLoop(ctx, sh.Session, block); err != nil {
				fmt.Printf("agfs: %v\n", err)
			}
			continue

		case IsIfHeader(line):
			block, ok := sh.readBlock(line, "if ", "fi")
			if !ok {
				continue
			}
			if _, err := ExecuteIfStatement(ctx, sh.Session, block); err != nil {
				fmt.Printf("agfs: %v\n", err)
			}
			continue
		}

		chain, err := ParseCommandChain(line)
		if err != nil {
			fmt.Printf("agfs: %v\n", err)
			continue
		}
		if chain == nil {
			continue
		}

		if delim, pending := chain.PendingHeredocDelim(); pending {
			body, ok := sh.readHeredoc(delim)
			if !ok {
				continue
			}
			chain.AttachHeredocBody(body)
		}

		if err := chain.Execute(ctx, sh.Session); err != nil {
			fmt.Printf("agfs: %v\n", err)
		}
	}
}

// readBlock collects continuation lines for a for/if block starting with
// header, tracking nesting depth by re-matching the header prefix, until
// the matching terminator line is read at depth zero. Returns false if
// input ends before the block closes.
func (sh *Shell) readBlock(header, headerPrefix, terminator string) ([]string, bool) {
	lines := []string{header}
	depth := 1
	for depth > 0 {
		sh.RL.SetPrompt("> ")
		line, err := sh.RL.Readline()
		if err != nil {
			fmt.Printf("agfs: unexpected end of input, expected \"%s\"\n", terminator)
			return nil, false
		}
		trimmed := strings.TrimSpace(line)
		lines = append(lines, line)
		if strings.HasPrefix(trimmed, headerPrefix) {
			depth++
		} else if trimmed == terminator {
			depth--
		}
	}
	return lines, true
}

// readHeredoc collects raw lines until one equals delim exactly, matching
// the original tool's heredoc handling: no variable expansion, no glob
// expansion, the delimiter line itself isn't part of the body.
func (sh *Shell) readHeredoc(delim string) (string, bool) {
	var lines []string
	for {
		sh.RL.SetPrompt("> ")
		line, err := sh.RL.Readline()
		if err != nil {
			fmt.Printf("agfs: unexpected end of input, expected \"%s\"\n", delim)
			return "", false
		}
		if line == delim {
			break
		}
		lines = append(lines, line)
	}
	body := strings.Join(lines, "\n")
	if len(lines) > 0 {
		body += "\n"
	}
	return body, true
}

// expandHistory handles !n and !! syntax for history expansion
func (sh *Shell) expandHistory(line string) (string, error) {
	// For !! and !-n, use session history (current session only)
	// For !n and !prefix, use full history (file + session)

	// !! - last command from current session
	if line == "!!" {
		if len(sh.sessionHistory) == 0 {
			return "", fmt.Errorf("!!: event not found")
		}
		return sh.sessionHistory[len(sh.sessionHistory)-1], nil
	}

	// !-n - nth previous command from current session
	if strings.HasPrefix(line, "!-") {
		nStr := line[2:]
		n, err := strconv.Atoi(nStr)
		if err != nil || n < 1 {
			return "", fmt.Errorf("!%s: event not found", nStr)
		}
		idx := len(sh.sessionHistory) - n
		if idx < 0 {
			return "", fmt.Errorf("!%s: event not found", nStr)
		}
		return sh.sessionHistory[idx], nil
	}

	// For !n and !prefix, use full history
	history := sh.GetHistory()
	if len(history) == 0 {
		return "", fmt.Errorf("no history available")
	}

	// !n - command at position n (1-indexed)
	if strings.HasPrefix(line, "!") {
		nStr := line[1:]
		n, err := strconv.Atoi(nStr)
		if err != nil {
			// !string - search for command starting with string
			prefix := nStr
			for i := len(history) - 1; i >= 0; i-- {
				if strings.HasPrefix(history[i], prefix) {
					return history[i], nil
				}
			}
			return "", fmt.Errorf("!%s: event not found", prefix)
		}
		if n < 1 || n > len(history) {
			return "", fmt.Errorf("!%d: event not found", n)
		}
		return history[n-1], nil
	}

	return line, nil
}

// GetHistory returns the full history from the file (readline keeps it up-to-date)
func (sh *Shell) GetHistory() []string {
	historyPath, err := config.HistoryPath()
	if err != nil {
		return sh.sessionHistory // Fallback to session history
	}

	data, err := os.ReadFile(historyPath)
	if err != nil {
		return sh.sessionHistory // Fallback to session history
	}

	lines := strings.Split(string(data), "\n")
	var history []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			history = append(history, line)
		}
	}
	return history
}
