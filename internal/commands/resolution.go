package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
)

// ResolveEntry stats a user argument by path, returning its AGFS entry.
func ResolveEntry(ctx context.Context, s *session.Session, arg string) (string, *agfsapi.Entry, error) {
	path, err := s.ResolvePathArg(arg)
	if err != nil {
		return "", nil, err
	}
	entry, err := s.Client.Stat(ctx, path)
	if err != nil {
		var aerr *agfsapi.Error
		if errors.As(err, &aerr) && aerr.Kind == agfsapi.ErrNotFound {
			return path, nil, fmt.Errorf("%s: No such file or directory", arg)
		}
		return path, nil, err
	}
	return path, entry, nil
}

// ReadAll downloads path's full content into memory.
func ReadAll(ctx context.Context, s *session.Session, path string) ([]byte, error) {
	r, err := s.Client.Cat(ctx, path, agfsapi.CatOptions{Offset: 0, Size: -1})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// CopyTo streams path's content to w chunk-by-chunk.
func CopyTo(ctx context.Context, s *session.Session, path string, w io.Writer) error {
	r, err := s.Client.Cat(ctx, path, agfsapi.CatOptions{Offset: 0, Size: -1, Stream: true})
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}
