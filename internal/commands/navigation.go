package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
	"github.com/spf13/pflag"
)

func init() {
	Register(&Command{
		Name:                "ls",
		Description:         "List directory contents",
		Usage:               "ls [-l] [-a] [path]\n\nOptions:\n  -l    Long listing format (mode, size, mtime, name)\n  -a    Show hidden files (starting with .)\n\nExamples:\n  ls           List current directory\n  ls -la       Long format with hidden files\n  ls /photos   List specific directory",
		Run:                 ls,
		NeedsPathResolution: true,
	})
	Register(&Command{
		Name:                "cd",
		Description:         "Change directory",
		Usage:               "cd [path]\n\nSpecial paths:\n  ~            Home directory\n  -            Previous directory\n  ..           Parent directory\n  .            Current directory",
		Run:                 cd,
		ChangesCWD:          true,
		NeedsPathResolution: false,
		NoPipeline:          true,
	})
	Register(&Command{
		Name:        "pwd",
		Description: "Print current working directory",
		Usage:       "pwd",
		Run:         pwd,
	})
	Register(&Command{
		Name:        "exit",
		Description: "Exit the shell",
		Usage:       "exit [code]",
		Run:         exitCmd,
		NoPipeline:  true,
	})
}

func ls(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := pflag.NewFlagSet("ls", pflag.ContinueOnError)
	showAll := fs.BoolP("all", "a", false, "show hidden files")
	longFormat := fs.BoolP("long", "l", false, "use long listing format")
	fs.SetOutput(env.Stderr)

	if err := fs.Parse(args); err != nil {
		return err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	opts := &listPathOptions{showAll: *showAll, longFormat: *longFormat}

	var lastErr error
	for i, path := range paths {
		if len(paths) > 1 {
			fmt.Fprintf(env.Stdout, "%s:\n", path)
		}

		if err := listPathWithOpts(ctx, s, path, opts, env.Stdout); err != nil {
			fmt.Fprintf(env.Stderr, "%v\n", err)
			lastErr = err
		}

		if i < len(paths)-1 && len(paths) > 1 {
			fmt.Fprintln(env.Stdout)
		}
	}
	return lastErr
}

type listPathOptions struct {
	showAll    bool
	longFormat bool
}

func listPathWithOpts(ctx context.Context, s *session.Session, path string, opts *listPathOptions, w io.Writer) error {
	resolved, err := s.ResolvePathArg(path)
	if err != nil {
		return fmt.Errorf("ls: %v", err)
	}

	entry, err := s.Client.Stat(ctx, resolved)
	if err != nil {
		return fmt.Errorf("ls: %s", formatClientError(err, path))
	}

	var entries []agfsapi.Entry
	if entry.IsDir {
		children, err := ui.WithSpinner(w, "", func() ([]agfsapi.Entry, error) {
			return s.Cache.Ensure(ctx, s.Client, resolved)
		})
		if err != nil {
			return fmt.Errorf("ls: %s", formatClientError(err, path))
		}
		entries = children
	} else {
		entries = []agfsapi.Entry{*entry}
	}

	if !opts.showAll {
		filtered := entries[:0]
		for _, e := range entries {
			if !strings.HasPrefix(e.Name, ".") {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	// Directories sort before regular files; each group by mtime descending.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].ModTime.After(entries[j].ModTime)
	})

	if opts.longFormat {
		return printLong(entries, w)
	}

	var names []string
	for _, e := range entries {
		names = append(names, styleEntryName(e))
	}
	printColumns(names, w)
	return nil
}

func styleEntryName(e agfsapi.Entry) string {
	kind := "file"
	if e.IsDir {
		kind = "folder"
	}
	return ui.StyleName(e.Name, kind)
}

func printColumns(names []string, w io.Writer) {
	if len(names) == 0 {
		return
	}

	termWidth := 80

	maxLen := 0
	for _, name := range names {
		if vLen := ui.VisibleLen(name); vLen > maxLen {
			maxLen = vLen
		}
	}

	colWidth := maxLen + 2
	if colWidth < 1 {
		colWidth = 1
	}

	numCols := termWidth / colWidth
	if numCols < 1 {
		numCols = 1
	}

	numRows := (len(names) + numCols - 1) / numCols

	for row := 0; row < numRows; row++ {
		for col := 0; col < numCols; col++ {
			idx := col*numRows + row
			if idx >= len(names) {
				continue
			}

			name := names[idx]
			padding := colWidth - ui.VisibleLen(name)
			if padding < 0 {
				padding = 0
			}

			isLastCol := col == numCols-1
			isLastInRow := (col+1)*numRows+row >= len(names)
			if isLastCol || isLastInRow {
				fmt.Fprint(w, name)
			} else {
				fmt.Fprintf(w, "%s%s", name, strings.Repeat(" ", padding))
			}
		}
		fmt.Fprintln(w)
	}
}

type longRow struct {
	mode string
	size string
	date string
	name string
}

func padLeftVisible(s string, width int) string {
	pad := width - ui.VisibleLen(s)
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func padRightVisible(s string, width int) string {
	pad := width - ui.VisibleLen(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}

func formatMode(isDir bool, mode uint32) string {
	if mode == 0 {
		if isDir {
			return "drwxr-xr-x"
		}
		return "-rw-r--r--"
	}

	var b strings.Builder
	if isDir {
		b.WriteByte('d')
	} else {
		b.WriteByte('-')
	}
	const perms = "rwxrwxrwx"
	for i := 0; i < 9; i++ {
		if mode&(1<<uint(8-i)) != 0 {
			b.WriteByte(perms[i])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func buildLongRow(e agfsapi.Entry) longRow {
	mode := ui.PermStyle.Render(formatMode(e.IsDir, e.Mode))
	size := ui.SizeStyle.Render(formatSize(e.Size))
	date := ui.DateStyle.Render(e.ModTime.Format("Jan 02 15:04"))
	return longRow{mode: mode, size: size, date: date, name: styleEntryName(e)}
}

func printLong(entries []agfsapi.Entry, w io.Writer) error {
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	fmt.Fprintf(w, "total %s\n", formatSize(total))

	rows := make([]longRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, buildLongRow(e))
	}

	wSize, wDate := 0, 0
	for _, r := range rows {
		if l := ui.VisibleLen(r.size); l > wSize {
			wSize = l
		}
		if l := ui.VisibleLen(r.date); l > wDate {
			wDate = l
		}
	}

	for _, r := range rows {
		line := r.mode + "  " +
			padLeftVisible(r.size, wSize) + "  " +
			padRightVisible(r.date, wDate) + "  " +
			r.name
		fmt.Fprintln(w, line)
	}

	return nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func cd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	var target string
	if len(args) < 1 {
		target = s.HomeDir
	} else {
		target = args[0]
	}

	if target == "-" {
		if s.PreviousDir == "" {
			return fmt.Errorf("cd: OLDPWD not set")
		}
		target = s.PreviousDir
	}

	newPath := s.ResolvePath(target)

	entry, err := s.Client.Stat(ctx, newPath)
	if err != nil {
		return fmt.Errorf("cd: %s", formatClientError(err, target))
	}
	if !entry.IsDir {
		return fmt.Errorf("cd: %s: Not a directory", target)
	}

	env.NewCWD = &newPath
	return nil
}

func pwd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fmt.Fprintln(env.Stdout, s.CWD)
	return nil
}

func exitCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	code := s.ExitCode()
	if len(args) > 0 {
		fmt.Sscanf(args[0], "%d", &code)
	}
	os.Exit(code)
	return nil
}
