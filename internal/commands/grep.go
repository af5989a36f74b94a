package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/spf13/pflag"
)

func init() {
	Register(&Command{
		Name:        "grep",
		Description: "Search file content for a pattern",
		Usage: `grep [-rivnclh] <pattern> [file]

Options:
  -r    Recurse into directories (delegated to the server)
  -i    Case-insensitive match
  -v    Invert match (print non-matching lines)
  -n    Prefix each match with its line number
  -c    Print only a count of matching lines
  -l    Print only the matching file's name
  -h    Suppress the filename prefix
  -H    Force the filename prefix

Without a file, reads from stdin.

Examples:
  grep error log.txt        Find lines containing "error"
  grep -r TODO src/         Recursively search a directory
  cat log.txt | grep -i ok  Case-insensitive match over a pipe`,
		Run: grepCmd,
	})
}

func grepCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := pflag.NewFlagSet("grep", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	recursive := fs.BoolP("recursive", "r", false, "recurse into directories")
	ignoreCase := fs.BoolP("ignore-case", "i", false, "case-insensitive match")
	invert := fs.BoolP("invert-match", "v", false, "invert match")
	lineNumber := fs.BoolP("line-number", "n", false, "prefix matches with line number")
	countOnly := fs.BoolP("count", "c", false, "print match count only")
	filesOnly := fs.BoolP("files-with-matches", "l", false, "print matching filenames only")
	noFilename := fs.BoolP("no-filename", "h", false, "suppress filename prefix")
	withFilename := fs.BoolP("with-filename", "H", false, "force filename prefix")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("usage: grep [-rivnclh] <pattern> [file]")
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: grep [-rivnclh] <pattern> [file]")
	}
	if fs.NArg() > 2 {
		return fmt.Errorf("grep: multiple files not supported")
	}

	if *recursive {
		if fs.NArg() != 2 {
			return fmt.Errorf("grep: -r requires a directory argument")
		}
		return grepRecursive(ctx, s, env, fs.Arg(0), fs.Arg(1), *ignoreCase, *invert, *lineNumber, *countOnly, *filesOnly)
	}

	pattern := fs.Arg(0)
	if *ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("usage: grep: invalid pattern: %v", err)
	}

	var content string
	var filename string
	if fs.NArg() == 2 {
		filename = fs.Arg(1)
		content, err = readFileToString(ctx, s, filename)
		if err != nil {
			return err
		}
	} else {
		data, err := io.ReadAll(env.Stdin)
		if err != nil {
			return err
		}
		content = string(data)
	}

	showFilename := filename != "" && !*noFilename
	if *withFilename {
		showFilename = true
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	count := 0
	matched := false

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		isMatch := re.MatchString(line)
		if *invert {
			isMatch = !isMatch
		}
		if !isMatch {
			continue
		}

		matched = true
		count++

		if *countOnly || *filesOnly {
			continue
		}

		var prefix string
		if showFilename {
			prefix += filename + ":"
		}
		if *lineNumber {
			prefix += fmt.Sprintf("%d:", lineNo)
		}
		fmt.Fprintf(env.Stdout, "%s%s\n", prefix, line)
	}

	switch {
	case *filesOnly:
		if matched {
			fmt.Fprintln(env.Stdout, filename)
		}
	case *countOnly:
		var prefix string
		if showFilename {
			prefix = filename + ":"
		}
		fmt.Fprintf(env.Stdout, "%s%d\n", prefix, count)
	}

	return nil
}

// grepRecursive delegates a directory search to the server's grep
// operation instead of walking the tree and cat-ing every file locally.
func grepRecursive(ctx context.Context, s *session.Session, env *ExecutionEnv, pattern, dir string, ignoreCase, invert, lineNumber, countOnly, filesOnly bool) error {
	if invert {
		return fmt.Errorf("grep: -v is not supported together with -r")
	}

	resolved, err := s.ResolvePathArg(dir)
	if err != nil {
		return err
	}

	result, err := s.Client.Grep(ctx, resolved, agfsapi.GrepOptions{
		Pattern:         pattern,
		Recursive:       true,
		CaseInsensitive: ignoreCase,
	})
	if err != nil {
		return fmt.Errorf("grep: %v", err)
	}

	if filesOnly {
		seen := make(map[string]bool)
		var files []string
		for _, m := range result.Matches {
			if !seen[m.Path] {
				seen[m.Path] = true
				files = append(files, m.Path)
			}
		}
		sort.Strings(files)
		for _, f := range files {
			fmt.Fprintln(env.Stdout, f)
		}
		return nil
	}

	if countOnly {
		counts := make(map[string]int)
		var paths []string
		for _, m := range result.Matches {
			if counts[m.Path] == 0 {
				paths = append(paths, m.Path)
			}
			counts[m.Path]++
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(env.Stdout, "%s:%d\n", p, counts[p])
		}
		return nil
	}

	for _, m := range result.Matches {
		var prefix string
		prefix += m.Path + ":"
		if lineNumber {
			prefix += fmt.Sprintf("%d:", m.Line)
		}
		fmt.Fprintf(env.Stdout, "%s%s\n", prefix, m.Text)
	}

	return nil
}
