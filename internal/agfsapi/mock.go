package agfsapi

import (
	"bytes"
	"context"
	"io"
)

// MockClient is a test double for Client. Every method has an optional
// Func override; when unset it returns a fixed default (a nil error with an
// empty or minimal result, except Stat, which returns a not-found error). This
// mirrors the teacher's MockDrimeClient pattern: tests only need to wire
// up the handful of methods the code path under test actually calls.
type MockClient struct {
	HealthFunc       func(ctx context.Context) (*HealthInfo, error)
	LsFunc           func(ctx context.Context, path string) ([]Entry, error)
	StatFunc         func(ctx context.Context, path string) (*Entry, error)
	CatFunc          func(ctx context.Context, path string, opts CatOptions) (io.ReadCloser, error)
	WriteFunc        func(ctx context.Context, path string, opts WriteOptions) (string, error)
	CreateFunc       func(ctx context.Context, path string) (*Entry, error)
	MkdirFunc        func(ctx context.Context, path string, mode uint32) (*Entry, error)
	RmFunc           func(ctx context.Context, path string, recursive bool) error
	MvFunc           func(ctx context.Context, oldPath, newPath string) error
	ChmodFunc        func(ctx context.Context, path string, mode uint32) error
	GrepFunc         func(ctx context.Context, path string, opts GrepOptions) (*GrepResult, error)
	MountsFunc       func(ctx context.Context) ([]Mount, error)
	MountFunc        func(ctx context.Context, fstype, path string, config map[string]string) error
	UnmountFunc      func(ctx context.Context, path string) error
	LoadPluginFunc   func(ctx context.Context, uri string) error
	UnloadPluginFunc func(ctx context.Context, uri string) error
	ListPluginsFunc  func(ctx context.Context) ([]string, error)
}

func (m *MockClient) Health(ctx context.Context) (*HealthInfo, error) {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return &HealthInfo{Status: "ok"}, nil
}

func (m *MockClient) Ls(ctx context.Context, path string) ([]Entry, error) {
	if m.LsFunc != nil {
		return m.LsFunc(ctx, path)
	}
	return nil, nil
}

func (m *MockClient) Stat(ctx context.Context, path string) (*Entry, error) {
	if m.StatFunc != nil {
		return m.StatFunc(ctx, path)
	}
	return nil, &Error{Kind: ErrNotFound, Path: path}
}

func (m *MockClient) Cat(ctx context.Context, path string, opts CatOptions) (io.ReadCloser, error) {
	if m.CatFunc != nil {
		return m.CatFunc(ctx, path, opts)
	}
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (m *MockClient) Write(ctx context.Context, path string, opts WriteOptions) (string, error) {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, path, opts)
	}
	return "", nil
}

func (m *MockClient) Create(ctx context.Context, path string) (*Entry, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, path)
	}
	return &Entry{Name: path}, nil
}

func (m *MockClient) Mkdir(ctx context.Context, path string, mode uint32) (*Entry, error) {
	if m.MkdirFunc != nil {
		return m.MkdirFunc(ctx, path, mode)
	}
	return &Entry{Name: path, IsDir: true, Mode: mode}, nil
}

func (m *MockClient) Rm(ctx context.Context, path string, recursive bool) error {
	if m.RmFunc != nil {
		return m.RmFunc(ctx, path, recursive)
	}
	return nil
}

func (m *MockClient) Mv(ctx context.Context, oldPath, newPath string) error {
	if m.MvFunc != nil {
		return m.MvFunc(ctx, oldPath, newPath)
	}
	return nil
}

func (m *MockClient) Chmod(ctx context.Context, path string, mode uint32) error {
	if m.ChmodFunc != nil {
		return m.ChmodFunc(ctx, path, mode)
	}
	return nil
}

func (m *MockClient) Grep(ctx context.Context, path string, opts GrepOptions) (*GrepResult, error) {
	if m.GrepFunc != nil {
		return m.GrepFunc(ctx, path, opts)
	}
	return &GrepResult{}, nil
}

func (m *MockClient) Mounts(ctx context.Context) ([]Mount, error) {
	if m.MountsFunc != nil {
		return m.MountsFunc(ctx)
	}
	return nil, nil
}

func (m *MockClient) Mount(ctx context.Context, fstype, path string, config map[string]string) error {
	if m.MountFunc != nil {
		return m.MountFunc(ctx, fstype, path, config)
	}
	return nil
}

func (m *MockClient) Unmount(ctx context.Context, path string) error {
	if m.UnmountFunc != nil {
		return m.UnmountFunc(ctx, path)
	}
	return nil
}

func (m *MockClient) LoadPlugin(ctx context.Context, uri string) error {
	if m.LoadPluginFunc != nil {
		return m.LoadPluginFunc(ctx, uri)
	}
	return nil
}

func (m *MockClient) UnloadPlugin(ctx context.Context, uri string) error {
	if m.UnloadPluginFunc != nil {
		return m.UnloadPluginFunc(ctx, uri)
	}
	return nil
}

func (m *MockClient) ListPlugins(ctx context.Context) ([]string, error) {
	if m.ListPluginsFunc != nil {
		return m.ListPluginsFunc(ctx)
	}
	return nil, nil
}

var _ Client = (*MockClient)(nil)
