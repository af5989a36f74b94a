package commands

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:        "stat",
		Description: "Display file status",
		Usage: `stat <file>

Shows metadata about a file or directory: name, type, size, mode,
and modification time.

Examples:
  stat document.pdf       Show info about a file
  stat photos/            Show info about a directory`,
		Run:                 stat,
		NeedsPathResolution: true,
	})

	Register(&Command{
		Name:        "tree",
		Description: "List contents in a tree-like format",
		Usage: `tree [path]

Displays directory structure as a tree.
Defaults to current directory if no path specified.

Examples:
  tree              Show tree from current directory
  tree photos/      Show tree starting from photos

Limited to 20 levels deep.`,
		Run:                 tree,
		NeedsPathResolution: true,
	})
}

func stat(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: stat <file>")
	}

	path := args[0]
	_, entry, err := ResolveEntry(ctx, s, path)
	if err != nil {
		return fmt.Errorf("stat: %v", err)
	}

	kind := "file"
	if entry.IsDir {
		kind = "folder"
	}

	label := ui.MutedStyle.Render
	fmt.Fprintf(env.Stdout, "%s %s\n", label("  File:"), ui.StyleName(entry.Name, kind))
	fmt.Fprintf(env.Stdout, "%s %s\n", label("  Size:"), ui.SizeStyle.Render(fmt.Sprintf("%d", entry.Size)))
	fmt.Fprintf(env.Stdout, "%s %s\n", label("  Type:"), ui.StyleForType(kind).Render(kind))
	fmt.Fprintf(env.Stdout, "%s %s\n", label("  Mode:"), ui.MutedStyle.Render(formatMode(entry.IsDir, entry.Mode)))
	if entry.ModTime.IsZero() {
		fmt.Fprintf(env.Stdout, "%s %s\n", label("Modify:"), ui.MutedStyle.Render("<unknown>"))
	} else {
		fmt.Fprintf(env.Stdout, "%s %s\n", label("Modify:"), ui.DateStyle.Render(entry.ModTime.String()))
	}

	return nil
}

func tree(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	rootPath := "."
	if len(args) > 0 {
		rootPath = args[0]
	}

	resolved, err := s.ResolvePathArg(rootPath)
	if err != nil {
		return fmt.Errorf("tree: %v", err)
	}
	rootEntry, err := s.Client.Stat(ctx, resolved)
	if err != nil {
		return fmt.Errorf("tree: %s", formatClientError(err, rootPath))
	}
	if !rootEntry.IsDir {
		fmt.Fprintf(env.Stderr, "%s [error opening dir]\n", rootPath)
		return nil
	}

	fmt.Fprintln(env.Stdout, rootPath)
	return walkTree(ctx, s, resolved, "", 0, env.Stdout)
}

func walkTree(ctx context.Context, s *session.Session, dir string, prefix string, depth int, w io.Writer) error {
	if depth >= 20 {
		fmt.Fprintf(w, "%s... (max depth reached)\n", prefix)
		return nil
	}

	children, err := s.Cache.Ensure(ctx, s.Client, dir)
	if err != nil {
		return err
	}

	children = append([]agfsapi.Entry(nil), children...)
	sort.Slice(children, func(i, j int) bool {
		return children[i].Name < children[j].Name
	})

	for i, child := range children {
		isLast := i == len(children)-1
		connector := "├── "
		if isLast {
			connector = "└── "
		}

		fmt.Fprintf(w, "%s%s%s\n", ui.MutedStyle.Render(prefix), ui.MutedStyle.Render(connector), styleEntryName(child))

		if child.IsDir {
			newPrefix := prefix + "│   "
			if isLast {
				newPrefix = prefix + "    "
			}
			childPath := dir + "/" + child.Name
			if dir == "/" {
				childPath = "/" + child.Name
			}
			if err := walkTree(ctx, s, childPath, newPrefix, depth+1, w); err != nil {
				fmt.Fprintf(w, "%s[Error: %v]\n", newPrefix, err)
			}
		}
	}
	return nil
}
