package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
)

// RemoteFileReader downloads a remote file via AGFS's cat operation and
// exposes it as an io.Reader for input redirection ("<"). Files larger
// than the session's memory buffer threshold stream to a temp file
// instead of buffering in memory.
type RemoteFileReader struct {
	reader   io.Reader
	tempFile *os.File
	closed   bool
}

func NewRemoteFileReader(ctx context.Context, s *session.Session, remotePath string) (*RemoteFileReader, error) {
	resolved, err := s.ResolvePathArg(remotePath)
	if err != nil {
		return nil, err
	}

	entry, err := s.Client.Stat(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("%s: no such file or directory", remotePath)
	}
	if entry.IsDir {
		return nil, fmt.Errorf("%s: is a directory", remotePath)
	}

	if entry.Size > s.MaxMemoryBytes() {
		return newRemoteFileReaderWithTempFile(ctx, s, resolved)
	}

	buf := new(bytes.Buffer)
	err = ui.WithSpinnerErr(os.Stderr, "", func() error {
		r, err := s.Client.Cat(ctx, resolved, agfsapi.CatOptions{Offset: 0, Size: -1, Stream: true})
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = io.Copy(buf, r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}

	return &RemoteFileReader{reader: buf}, nil
}

func newRemoteFileReaderWithTempFile(ctx context.Context, s *session.Session, path string) (*RemoteFileReader, error) {
	tempFile, err := os.CreateTemp("", "agfs-input-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	err = ui.WithSpinnerErr(os.Stderr, "", func() error {
		r, err := s.Client.Cat(ctx, path, agfsapi.CatOptions{Offset: 0, Size: -1, Stream: true})
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = io.Copy(tempFile, r)
		return err
	})
	if err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, fmt.Errorf("failed to read: %w", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, fmt.Errorf("failed to seek temp file: %w", err)
	}

	return &RemoteFileReader{reader: tempFile, tempFile: tempFile}, nil
}

func (r *RemoteFileReader) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r *RemoteFileReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if r.tempFile != nil {
		name := r.tempFile.Name()
		r.tempFile.Close()
		os.Remove(name)
	}
	return nil
}
