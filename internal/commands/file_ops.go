package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:                "mv",
		Description:         "Move or rename files",
		Usage:               "mv <source> <dest>\n\nExamples:\n  mv file.txt newname.txt    Rename a file\n  mv file.txt /folder/       Move file into a folder",
		Run:                 mv,
		NeedsPathResolution: true,
	})
	Register(&Command{
		Name:                "cp",
		Description:         "Copy files",
		Usage:               "cp [-r] <source>... <dest>\n\nOptions:\n  -r    Copy directories recursively\n\nExamples:\n  cp file.txt copy.txt       Copy a file\n  cp file.txt /folder/       Copy file to folder\n  cp -r folder/ /backup/     Copy folder recursively",
		Run:                 cp,
		NeedsPathResolution: true,
	})
	Register(&Command{
		Name:                "touch",
		Description:         "Create an empty file",
		Usage:               "touch <file>...\n\nExamples:\n  touch file.txt           Create an empty file\n  touch a.txt b.txt        Create multiple files",
		Run:                 touch,
		NeedsPathResolution: true,
	})
}

func mv(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: mv <source> <dest>")
	}

	sources := args[:len(args)-1]
	dest := args[len(args)-1]

	destResolved, err := s.ResolvePathArg(dest)
	if err != nil {
		return fmt.Errorf("mv: %v", err)
	}
	destEntry, destErr := s.Client.Stat(ctx, destResolved)
	destIsDir := destErr == nil && destEntry.IsDir

	if len(sources) > 1 && !destIsDir {
		return fmt.Errorf("mv: target '%s' is not a directory", dest)
	}

	for _, src := range sources {
		srcResolved, err := s.ResolvePathArg(src)
		if err != nil {
			return fmt.Errorf("mv: %v", err)
		}

		target := destResolved
		if destIsDir {
			target = filepath.Join(destResolved, filepath.Base(srcResolved))
		}

		if err := s.Client.Mv(ctx, srcResolved, target); err != nil {
			return fmt.Errorf("mv: cannot move '%s': %s", src, formatClientError(err, src))
		}
		s.Cache.Invalidate(filepath.Dir(srcResolved))
		s.Cache.Invalidate(filepath.Dir(target))
	}
	return nil
}

func cp(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	recursive := false
	var paths []string
	for _, arg := range args {
		if arg == "-r" || arg == "-R" {
			recursive = true
		} else {
			paths = append(paths, arg)
		}
	}

	if len(paths) < 2 {
		return fmt.Errorf("usage: cp [-r] <source>... <dest>")
	}

	sources := paths[:len(paths)-1]
	dest := paths[len(paths)-1]

	destResolved, err := s.ResolvePathArg(dest)
	if err != nil {
		return fmt.Errorf("cp: %v", err)
	}
	destEntry, destErr := s.Client.Stat(ctx, destResolved)
	destIsDir := destErr == nil && destEntry.IsDir

	if len(sources) > 1 && !destIsDir {
		return fmt.Errorf("cp: target '%s' is not a directory", dest)
	}

	err = ui.WithSpinnerErr(env.Stderr, "", func() error {
		for _, src := range sources {
			srcResolved, err := s.ResolvePathArg(src)
			if err != nil {
				return err
			}
			srcEntry, err := s.Client.Stat(ctx, srcResolved)
			if err != nil {
				return fmt.Errorf("cp: cannot stat '%s': %s", src, formatClientError(err, src))
			}

			target := destResolved
			if destIsDir {
				target = filepath.Join(destResolved, filepath.Base(srcResolved))
			}

			if srcEntry.IsDir {
				if !recursive {
					return fmt.Errorf("cp: -r not specified; omitting directory '%s'", src)
				}
				if err := copyDirectory(ctx, s, srcResolved, target); err != nil {
					return err
				}
				continue
			}
			if err := copyFile(ctx, s, srcResolved, target); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// copyFile reads the source in one call and writes it to the destination
// in one call — AGFS's cp never streams through the client's memory in
// a loop, since a single remote read followed by a single remote write
// is the cheapest path for same-server transforms.
func copyFile(ctx context.Context, s *session.Session, src, dest string) error {
	content, err := ReadAll(ctx, s, src)
	if err != nil {
		return fmt.Errorf("cp: cannot read '%s': %s", src, formatClientError(err, src))
	}
	if _, err := s.Client.Write(ctx, dest, agfsapi.WriteOptions{Data: content}); err != nil {
		return fmt.Errorf("cp: cannot write '%s': %s", dest, formatClientError(err, dest))
	}
	s.Cache.Invalidate(filepath.Dir(dest))
	return nil
}

func copyDirectory(ctx context.Context, s *session.Session, src, dest string) error {
	if _, err := s.Client.Mkdir(ctx, dest, defaultDirMode); err != nil {
		var aerr *agfsapi.Error
		if !(errors.As(err, &aerr) && aerr.Kind == agfsapi.ErrBadRequest) {
			return fmt.Errorf("cp: cannot create directory '%s': %s", dest, formatClientError(err, dest))
		}
	}

	children, err := s.Cache.Ensure(ctx, s.Client, src)
	if err != nil {
		return fmt.Errorf("cp: cannot list '%s': %s", src, formatClientError(err, src))
	}

	for _, child := range children {
		childSrc := filepath.Join(src, child.Name)
		childDest := filepath.Join(dest, child.Name)
		if child.IsDir {
			if err := copyDirectory(ctx, s, childSrc, childDest); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(ctx, s, childSrc, childDest); err != nil {
			return err
		}
	}
	s.Cache.Invalidate(dest)
	return nil
}

func touch(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: touch <file>...")
	}

	for _, arg := range args {
		target, err := s.ResolvePathArg(arg)
		if err != nil {
			return fmt.Errorf("touch: %v", err)
		}

		if _, err := s.Client.Stat(ctx, target); err == nil {
			continue
		}

		if _, err := s.Client.Create(ctx, target); err != nil {
			return fmt.Errorf("touch: cannot touch '%s': %s", arg, formatClientError(err, arg))
		}
		s.Cache.Invalidate(filepath.Dir(target))
	}
	return nil
}
