package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:                "mkdir",
		Description:         "Create a directory",
		Usage:               "mkdir [-p] <path>...\n\nOptions:\n  -p    Create parent directories as needed\n\nExamples:\n  mkdir photos          Create a directory\n  mkdir -p a/b/c        Create nested directories",
		Run:                 mkdir,
		NeedsPathResolution: true,
	})
	Register(&Command{
		Name:                "rm",
		Description:         "Remove files or directories",
		Usage:               "rm [-rf] <path>...\n\nOptions:\n  -r, -R    Remove directories recursively\n  -f        Ignore non-existent files, never prompt\n\nExamples:\n  rm file.txt       Remove a file\n  rm -rf folder/    Remove a directory and its contents\n  rm *.tmp          Remove matching files",
		Run:                 rm,
		NeedsPathResolution: true,
	})
}

const defaultDirMode = 0755

func mkdir(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	createParents := false
	var paths []string
	for _, arg := range args {
		if arg == "-p" {
			createParents = true
		} else {
			paths = append(paths, arg)
		}
	}

	if len(paths) < 1 {
		return fmt.Errorf("usage: mkdir [-p] <path>...")
	}

	for _, path := range paths {
		if err := mkdirOne(ctx, s, path, createParents); err != nil {
			return err
		}
	}
	return nil
}

func mkdirOne(ctx context.Context, s *session.Session, path string, createParents bool) error {
	target, err := s.ResolvePathArg(path)
	if err != nil {
		return fmt.Errorf("mkdir: %v", err)
	}

	if entry, err := s.Client.Stat(ctx, target); err == nil {
		if createParents && entry.IsDir {
			return nil
		}
		return fmt.Errorf("mkdir: cannot create directory '%s': File exists", path)
	}

	if !createParents {
		parent := filepath.Dir(target)
		if _, err := s.Client.Stat(ctx, parent); err != nil {
			return fmt.Errorf("mkdir: cannot create directory '%s': No such file or directory", path)
		}
		if _, err := s.Client.Mkdir(ctx, target, defaultDirMode); err != nil {
			return fmt.Errorf("mkdir: cannot create directory '%s': %s", path, formatClientError(err, path))
		}
		s.Cache.Invalidate(parent)
		return nil
	}

	// -p: create every missing ancestor, deepest last.
	parts := strings.Split(strings.Trim(target, "/"), "/")
	current := "/"
	for _, part := range parts {
		if part == "" {
			continue
		}
		current = filepath.Join(current, part)
		if entry, err := s.Client.Stat(ctx, current); err == nil {
			if !entry.IsDir {
				return fmt.Errorf("mkdir: '%s' is not a directory", current)
			}
			continue
		}
		if _, err := s.Client.Mkdir(ctx, current, defaultDirMode); err != nil {
			return fmt.Errorf("mkdir: cannot create directory '%s': %s", current, formatClientError(err, current))
		}
		s.Cache.Invalidate(filepath.Dir(current))
	}
	return nil
}

func rm(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	recursive := false
	force := false
	var patterns []string

	for _, arg := range args {
		switch {
		case arg == "-r" || arg == "-R":
			recursive = true
		case arg == "-f":
			force = true
		case len(arg) > 1 && arg[0] == '-':
			for _, c := range arg[1:] {
				switch c {
				case 'r', 'R':
					recursive = true
				case 'f':
					force = true
				}
			}
		default:
			patterns = append(patterns, arg)
		}
	}

	if len(patterns) < 1 {
		return fmt.Errorf("usage: rm [-rf] <path>...")
	}

	var targets []string
	for _, pattern := range patterns {
		if strings.ContainsAny(pattern, "*?[") {
			resolvedPattern, err := s.ResolvePathArg(pattern)
			if err != nil {
				return fmt.Errorf("rm: %v", err)
			}
			parentDir := filepath.Dir(resolvedPattern)
			filePattern := filepath.Base(resolvedPattern)

			if _, err := s.Cache.Ensure(ctx, s.Client, parentDir); err != nil {
				if force {
					continue
				}
				return fmt.Errorf("rm: cannot access '%s': %s", pattern, formatClientError(err, pattern))
			}

			matches := s.Cache.MatchGlob(parentDir, filePattern)
			if len(matches) == 0 {
				if !force {
					return fmt.Errorf("rm: cannot remove '%s': No such file or directory", pattern)
				}
				continue
			}
			for _, name := range matches {
				targets = append(targets, filepath.Join(parentDir, name))
			}
			continue
		}

		resolved, err := s.ResolvePathArg(pattern)
		if err != nil {
			return fmt.Errorf("rm: %v", err)
		}
		targets = append(targets, resolved)
	}

	err := ui.WithSpinnerErr(env.Stderr, "", func() error {
		for _, target := range targets {
			entry, statErr := s.Client.Stat(ctx, target)
			if statErr != nil {
				var aerr *agfsapi.Error
				if force && errors.As(statErr, &aerr) && aerr.Kind == agfsapi.ErrNotFound {
					continue
				}
				return fmt.Errorf("rm: cannot remove '%s': %s", target, formatClientError(statErr, target))
			}
			if entry.IsDir && !recursive {
				return fmt.Errorf("rm: cannot remove '%s': Is a directory", target)
			}
			if err := s.Client.Rm(ctx, target, recursive); err != nil {
				return fmt.Errorf("rm: cannot remove '%s': %s", target, formatClientError(err, target))
			}
			s.Cache.Invalidate(filepath.Dir(target))
			s.Cache.Invalidate(target)
		}
		return nil
	})
	return err
}
