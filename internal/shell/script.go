package shell

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/session"
)

// RunScript executes path one statement per line, skipping blank lines and
// lines starting with "#", stopping at the first statement that exits
// non-zero and propagating its code (§6.1). for/if headers still open a
// multi-line block the way they would from the REPL; executeBlockLines's
// depth tracking handles that uniformly whether the lines came from a
// file or from stdin.
func RunScript(ctx context.Context, sess *session.Session, path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agfs: %s: no such file or directory\n", path)
		return 127
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "agfs: %s: %v\n", path, err)
		return 1
	}

	code, err := executeBlockLines(ctx, sess, lines, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agfs: %v\n", err)
	}
	return code
}
