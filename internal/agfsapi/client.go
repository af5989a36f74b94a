package agfsapi

import (
	"context"
	"io"
)

// CatOptions controls a ranged or streamed read of a file's content.
type CatOptions struct {
	Offset int64
	Size   int64 // -1 means "to EOF"
	Stream bool
}

// WriteOptions controls how data is supplied to a write call.
type WriteOptions struct {
	// Reader, when set, streams the body via chunked transfer encoding
	// instead of sending the Data field as one buffer.
	Reader io.Reader
	Data   []byte
}

// GrepOptions controls a server-side grep call.
type GrepOptions struct {
	Pattern         string
	Recursive       bool
	CaseInsensitive bool
	Stream          bool
}

// Client is the complete remote filesystem surface the shell consumes.
// Every method maps 1:1 onto one logical AGFS operation; no method does
// more than one round trip. All paths passed in are absolute.
type Client interface {
	Health(ctx context.Context) (*HealthInfo, error)

	Ls(ctx context.Context, path string) ([]Entry, error)
	Stat(ctx context.Context, path string) (*Entry, error)

	// Cat returns the requested byte range. When opts.Stream is true the
	// returned io.ReadCloser yields content incrementally and MUST be
	// closed by the caller on every exit path, including cancellation.
	Cat(ctx context.Context, path string, opts CatOptions) (io.ReadCloser, error)

	// Write sends bytes to path, either fully buffered (opts.Data) or
	// streamed from opts.Reader with chunked transfer encoding. Returns
	// the (possibly empty) server response message.
	Write(ctx context.Context, path string, opts WriteOptions) (string, error)

	Create(ctx context.Context, path string) (*Entry, error)
	Mkdir(ctx context.Context, path string, mode uint32) (*Entry, error)
	Rm(ctx context.Context, path string, recursive bool) error
	Mv(ctx context.Context, oldPath, newPath string) error
	Chmod(ctx context.Context, path string, mode uint32) error

	Grep(ctx context.Context, path string, opts GrepOptions) (*GrepResult, error)

	Mounts(ctx context.Context) ([]Mount, error)
	Mount(ctx context.Context, fstype, path string, config map[string]string) error
	Unmount(ctx context.Context, path string) error

	LoadPlugin(ctx context.Context, uri string) error
	UnloadPlugin(ctx context.Context, uri string) error
	ListPlugins(ctx context.Context) ([]string, error)
}
