package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:        "upload",
		Description: "Upload a local file or directory to the remote filesystem",
		Usage:       "upload <local_path> [remote_path]\n\nDirectories are uploaded recursively.\n\nExamples:\n  upload photo.jpg            Upload to the current directory\n  upload ./project /backups/  Upload a directory recursively",
		Run:         upload,
	})
	Register(&Command{
		Name:        "download",
		Description: "Download a remote file or directory to the local filesystem",
		Usage:       "download <remote_path> [local_path]\n\nDirectories are downloaded recursively.\n\nExamples:\n  download photo.jpg           Download to the current directory\n  download /backups ./restore  Download a directory recursively",
		Run:         download,
	})
	Register(&Command{
		Name:        "edit",
		Description: "Edit a remote file using the built-in editor",
		Usage:       "edit <file>\n\nOpens the file in the built-in text editor.\n\nKeybindings (nano-like):\n  Ctrl+S    Save\n  Ctrl+Q    Quit (or Ctrl+X)\n\nExamples:\n  edit config.yaml",
		Run:         edit,
	})
}

func upload(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: upload <local_path> [remote_path]")
	}
	localPath := args[0]
	remotePath := s.CWD
	if len(args) >= 2 {
		remotePath = args[1]
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("upload: %s: %v", localPath, err)
	}

	if info.IsDir() {
		return uploadDirectory(ctx, s, env, localPath, remotePath)
	}
	return uploadFile(ctx, s, env, localPath, remotePath)
}

// resolveUploadDest resolves the remote destination path for a single
// local file, following Unix cp/upload rules: if remotePath names an
// existing directory, the file goes inside it under its own name;
// otherwise remotePath is the final path.
func resolveUploadDest(ctx context.Context, s *session.Session, localName, remotePath string) string {
	resolved, err := s.ResolvePathArg(remotePath)
	if err != nil {
		return s.ResolvePath(remotePath)
	}
	if entry, err := s.Client.Stat(ctx, resolved); err == nil && entry.IsDir {
		return filepath.Join(resolved, localName)
	}
	return resolved
}

func uploadFile(ctx context.Context, s *session.Session, env *ExecutionEnv, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("upload: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("upload: %v", err)
	}

	dest := resolveUploadDest(ctx, s, filepath.Base(localPath), remotePath)

	if _, err := s.Client.Stat(ctx, dest); err == nil {
		proceed, err := ResolveConflict(dest)
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintf(env.Stdout, "Skipped: %s\n", dest)
			return nil
		}
	}

	err = ui.RunTransfer("Uploading "+filepath.Base(localPath), info.Size(), func(send func(int64, int64)) error {
		reader := &progressReader{Reader: f, Callback: func(curr int64) { send(curr, info.Size()) }}
		_, err := s.Client.Write(ctx, dest, agfsapi.WriteOptions{Reader: reader})
		return err
	})
	if err != nil {
		return fmt.Errorf("upload: %v", err)
	}

	s.Cache.Invalidate(filepath.Dir(dest))
	return nil
}

func uploadDirectory(ctx context.Context, s *session.Session, env *ExecutionEnv, localPath, remotePath string) error {
	items, err := walkLocalDirectory(localPath)
	if err != nil {
		return fmt.Errorf("upload: failed to scan directory: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(env.Stdout, "Directory is empty, nothing to upload")
		return nil
	}

	baseDirName := filepath.Base(localPath)
	baseRemote := resolveUploadDest(ctx, s, baseDirName, remotePath)

	if _, err := s.Client.Mkdir(ctx, baseRemote, defaultDirMode); err != nil {
		var aerr *agfsapi.Error
		if !(errors.As(err, &aerr) && aerr.Kind == agfsapi.ErrBadRequest) {
			return fmt.Errorf("upload: failed to create %s: %w", baseRemote, err)
		}
	}

	var files []TransferTask
	for _, rel := range items {
		localItem := filepath.Join(localPath, rel)
		info, err := os.Stat(localItem)
		if err != nil {
			continue
		}
		remoteItem := filepath.Join(baseRemote, rel)
		if info.IsDir() {
			if _, err := s.Client.Mkdir(ctx, remoteItem, defaultDirMode); err != nil {
				fmt.Fprintf(env.Stderr, "upload: warning: failed to create %s: %v\n", remoteItem, err)
			}
			continue
		}
		rel := rel
		localItem := localItem
		remoteItem := remoteItem
		files = append(files, TransferTask{
			RelativePath: rel,
			Run: func(ctx context.Context) error {
				f, err := os.Open(localItem)
				if err != nil {
					return err
				}
				defer f.Close()
				_, err = s.Client.Write(ctx, remoteItem, agfsapi.WriteOptions{Reader: f})
				return err
			},
		})
	}

	fmt.Fprintf(env.Stdout, "Uploading %d files...\n", len(files))

	pool := NewWorkerPool(ctx, defaultTransferConcurrency)
	printer := NewProgressPrinter()
	pool.SetOnFile(printer.OnFile)
	pool.Start()
	for _, t := range files {
		pool.Submit(t)
	}
	stats := pool.Close()

	s.Cache.Invalidate(filepath.Dir(baseRemote))
	fmt.Fprintln(env.Stdout, summarizeTransfer(stats))
	if stats.Failed > 0 {
		return fmt.Errorf("upload: %d file(s) failed", stats.Failed)
	}
	return nil
}

func download(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: download <remote_path> [local_path]")
	}
	remotePath := args[0]
	localPath := "."
	if len(args) >= 2 {
		localPath = args[1]
	}

	_, entry, err := ResolveEntry(ctx, s, remotePath)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	if entry.IsDir {
		return downloadDirectory(ctx, s, env, remotePath, localPath)
	}
	return downloadFile(ctx, s, env, remotePath, entry, localPath)
}

func downloadFile(ctx context.Context, s *session.Session, env *ExecutionEnv, remotePath string, entry *agfsapi.Entry, localPath string) error {
	finalPath := localPath
	if info, err := os.Stat(localPath); err == nil && info.IsDir() {
		finalPath = filepath.Join(localPath, entry.Name)
	}

	f, err := os.Create(finalPath)
	if err != nil {
		return fmt.Errorf("download: cannot open %s: %w", finalPath, err)
	}
	defer f.Close()

	resolved, err := s.ResolvePathArg(remotePath)
	if err != nil {
		return fmt.Errorf("download: %v", err)
	}

	err = ui.RunTransfer("Downloading "+entry.Name, entry.Size, func(send func(int64, int64)) error {
		r, err := s.Client.Cat(ctx, resolved, agfsapi.CatOptions{Offset: 0, Size: -1, Stream: true})
		if err != nil {
			return err
		}
		defer r.Close()
		writer := &progressWriter{Writer: f, Callback: func(curr int64) { send(curr, entry.Size) }}
		_, err = io.Copy(writer, r)
		return err
	})
	if err != nil {
		return fmt.Errorf("download: %v", err)
	}
	return nil
}

func downloadDirectory(ctx context.Context, s *session.Session, env *ExecutionEnv, remotePath, localPath string) error {
	resolved, err := s.ResolvePathArg(remotePath)
	if err != nil {
		return fmt.Errorf("download: %v", err)
	}

	baseName := filepath.Base(resolved)
	baseLocal := filepath.Join(localPath, baseName)
	if err := os.MkdirAll(baseLocal, 0755); err != nil {
		return fmt.Errorf("download: cannot create %s: %w", baseLocal, err)
	}

	files, err := listRemoteFilesRecursively(ctx, s, resolved)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(env.Stdout, "Directory is empty, nothing to download")
		return nil
	}

	var tasks []TransferTask
	for _, rf := range files {
		rel, _ := filepath.Rel(resolved, rf.path)
		localItem := filepath.Join(baseLocal, rel)
		if err := os.MkdirAll(filepath.Dir(localItem), 0755); err != nil {
			return fmt.Errorf("download: %w", err)
		}
		remotePath := rf.path
		entry := rf.entry
		tasks = append(tasks, TransferTask{
			RelativePath: rel,
			Run: func(ctx context.Context) error {
				f, err := os.Create(localItem)
				if err != nil {
					return err
				}
				defer f.Close()
				r, err := s.Client.Cat(ctx, remotePath, agfsapi.CatOptions{Offset: 0, Size: -1, Stream: true})
				if err != nil {
					return err
				}
				defer r.Close()
				_, err = io.Copy(f, r)
				_ = entry
				return err
			},
		})
	}

	fmt.Fprintf(env.Stdout, "Downloading %d files...\n", len(tasks))

	pool := NewWorkerPool(ctx, defaultTransferConcurrency)
	printer := NewProgressPrinter()
	pool.SetOnFile(printer.OnFile)
	pool.Start()
	for _, t := range tasks {
		pool.Submit(t)
	}
	stats := pool.Close()

	fmt.Fprintln(env.Stdout, summarizeTransfer(stats))
	if stats.Failed > 0 {
		return fmt.Errorf("download: %d file(s) failed", stats.Failed)
	}
	return nil
}

type remoteFile struct {
	entry *agfsapi.Entry
	path  string
}

func listRemoteFilesRecursively(ctx context.Context, s *session.Session, dir string) ([]remoteFile, error) {
	entries, err := s.Cache.Ensure(ctx, s.Client, dir)
	if err != nil {
		return nil, err
	}

	var files []remoteFile
	for _, e := range entries {
		entry := e
		path := filepath.Join(dir, entry.Name)
		if entry.IsDir {
			sub, err := listRemoteFilesRecursively(ctx, s, path)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		} else {
			files = append(files, remoteFile{entry: &entry, path: path})
		}
	}
	return files, nil
}

// progressReader/progressWriter adapt a plain reader/writer to RunTransfer's
// send-progress callback.
type progressReader struct {
	Reader   io.Reader
	Callback func(int64)
	current  int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		if pr.Callback != nil {
			pr.Callback(pr.current)
		}
	}
	return n, err
}

type progressWriter struct {
	Writer   io.Writer
	Callback func(int64)
	current  int64
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	if n > 0 {
		pw.current += int64(n)
		if pw.Callback != nil {
			pw.Callback(pw.current)
		}
	}
	return n, err
}

func edit(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: edit <file>")
	}

	path, entry, err := ResolveEntry(ctx, s, args[0])
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	if entry.IsDir {
		return fmt.Errorf("edit: %s: Is a directory", args[0])
	}
	if entry.Size > s.MaxMemoryBytes() {
		return fmt.Errorf("edit: %s: file too large (>%dMB) for editing", args[0], s.MaxMemoryBytes()/(1024*1024))
	}

	contentBytes, err := ui.WithSpinner(env.Stderr, "", func() ([]byte, error) {
		return ReadAll(ctx, s, path)
	})
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	content := string(contentBytes)

	result, err := ui.RunEditor(entry.Name, content)
	if err != nil {
		return fmt.Errorf("edit: editor error: %w", err)
	}

	if result.Saved && result.Content != content {
		err := ui.WithSpinnerErr(env.Stderr, "", func() error {
			_, err := s.Client.Write(ctx, path, agfsapi.WriteOptions{Data: []byte(result.Content)})
			return err
		})
		if err != nil {
			return fmt.Errorf("edit: %w", err)
		}
		s.Cache.Invalidate(filepath.Dir(path))
	} else if result.Content != content && !result.Saved {
		fmt.Fprintf(env.Stderr, "%s Changes discarded.\n", ui.WarningStyle.Render("!"))
	}

	return nil
}

// walkLocalDirectory returns all files and directories within root,
// relative to root, excluding common noise files.
func walkLocalDirectory(root string) ([]string, error) {
	var files []string
	ignored := map[string]bool{".DS_Store": true}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ignored[info.Name()] {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		files = append(files, rel)
		return nil
	})

	return files, err
}
