package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/commands"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
	"github.com/agfs-project/agfs-shell/internal/util"
)

// RemoteFileWriter buffers an output redirection's bytes in a temp file
// and writes the buffered content to AGFS in a single call on Close —
// as an in-memory byte slice or as a reader over the temp file, following
// the Stream Layer's memory-pressure threshold
// (internal/util.CheckMemoryForFile) — returning the server's write response
// so a redirection chain (cmd > a > b) can feed it into the next target.
type RemoteFileWriter struct {
	ctx        context.Context
	sess       *session.Session
	tempFile   *os.File
	remotePath string
	closed     bool
	append     bool
	response   string
}

func NewRemoteFileWriter(ctx context.Context, s *session.Session, remotePath string) (*RemoteFileWriter, error) {
	return NewRemoteFileWriterWithMode(ctx, s, remotePath, false)
}

func NewRemoteFileWriterWithMode(ctx context.Context, s *session.Session, remotePath string, appendMode bool) (*RemoteFileWriter, error) {
	f, err := os.CreateTemp("", "agfs-redir-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	if appendMode {
		destResolved, err := s.ResolvePathArg(remotePath)
		if err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, err
		}
		if existing, err := commands.ReadAll(ctx, s, destResolved); err == nil {
			f.Write(existing)
		}
	}

	return &RemoteFileWriter{
		sess:       s,
		remotePath: remotePath,
		tempFile:   f,
		ctx:        ctx,
		append:     appendMode,
	}, nil
}

func (w *RemoteFileWriter) Write(p []byte) (int, error) {
	return w.tempFile.Write(p)
}

// Response returns the server's write response, available after Close.
func (w *RemoteFileWriter) Response() string {
	return w.response
}

func (w *RemoteFileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	tempName := w.tempFile.Name()
	w.tempFile.Close()
	defer os.Remove(tempName)

	f, err := os.Open(tempName)
	if err != nil {
		return fmt.Errorf("failed to read temp file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	destResolved, err := w.sess.ResolvePathArg(w.remotePath)
	if err != nil {
		return err
	}

	if entry, err := w.sess.Client.Stat(w.ctx, destResolved); err == nil {
		if entry.IsDir {
			return fmt.Errorf("cannot redirect to directory '%s'", w.remotePath)
		}
		if !w.append {
			overwrite, err := commands.ResolveConflict(w.remotePath)
			if err != nil {
				return err
			}
			if !overwrite {
				return nil
			}
		}
	}

	check := util.CheckMemoryForFile(stat.Size())
	if check.AbortReason != "" {
		return fmt.Errorf("%s", check.AbortReason)
	}
	if check.Warning != "" {
		fmt.Fprintln(os.Stderr, check.Warning)
	}

	return ui.WithSpinnerErr(os.Stderr, "", func() error {
		var opts agfsapi.WriteOptions
		if check.OK && stat.Size() <= w.sess.MaxMemoryBytes() {
			content, err := io.ReadAll(f)
			if err != nil {
				return fmt.Errorf("failed to read buffered content: %w", err)
			}
			opts = agfsapi.WriteOptions{Data: content}
		} else {
			f.Seek(0, io.SeekStart)
			opts = agfsapi.WriteOptions{Reader: f}
		}

		resp, err := w.sess.Client.Write(w.ctx, destResolved, opts)
		if err != nil {
			return fmt.Errorf("failed to write '%s': %w", w.remotePath, err)
		}
		w.response = resp
		w.sess.Cache.Invalidate(filepath.Dir(destResolved))
		return nil
	})
}
