package agfsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient is the Client implementation talking to a real AGFS server.
type HTTPClient struct {
	HTTP           *http.Client
	BaseURL        string
	BaseRetryDelay time.Duration
	MaxRetries     int
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		HTTP:           &http.Client{Timeout: 60 * time.Second},
		BaseRetryDelay: 300 * time.Millisecond,
		MaxRetries:     5,
	}
}

// doWithRetry executes req, retrying idempotent requests on transient
// transport failures and 5xx responses with exponential backoff and
// jitter. Per spec §4.10, writes are issued with maxRetries=0 to preserve
// append-semantics correctness.
func (c *HTTPClient) doWithRetry(req *http.Request, maxRetries int) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil && maxRetries > 0 && req.Method != http.MethodGet && req.Method != http.MethodHead {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body.Close()
	}

	var resp *http.Response
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			req.ContentLength = int64(len(bodyBytes))
		}

		resp, err = c.HTTP.Do(req)
		if err == nil {
			if resp.StatusCode < 500 || attempt == maxRetries {
				return resp, nil
			}
			resp.Body.Close()
		}

		if attempt < maxRetries {
			backoff := float64(c.BaseRetryDelay) * math.Pow(2, float64(attempt))
			jitter := rand.Float64() * 0.25 * backoff
			sleep := time.Duration(backoff + jitter)
			if sleep > 10*time.Second {
				sleep = 10 * time.Second
			}
			select {
			case <-time.After(sleep):
				continue
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
	}

	if err != nil {
		return nil, &Error{Kind: ErrTransport, Message: err.Error()}
	}
	return resp, nil
}

func (c *HTTPClient) url(path string, q url.Values) string {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func extractMessage(body []byte) string {
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Message != "" {
			return errResp.Message
		}
		if errResp.Error != "" {
			return errResp.Error
		}
	}
	return string(body)
}

// classify maps an HTTP response into the spec's ErrorKind taxonomy.
func classify(path string, status int, body []byte, isLs bool) error {
	switch {
	case status == http.StatusNotFound:
		return &Error{Kind: ErrNotFound, Path: path}
	case status == http.StatusForbidden:
		return &Error{Kind: ErrPermissionDenied, Path: path}
	case status == http.StatusBadRequest:
		return &Error{Kind: ErrBadRequest, Path: path, Message: extractMessage(body)}
	case status == http.StatusInternalServerError && isLs:
		return &Error{Kind: ErrNotADirectory, Path: path}
	case status >= 500:
		return &Error{Kind: ErrServerError, Path: path, Message: extractMessage(body), Status: status}
	default:
		return &Error{Kind: ErrUnknown, Path: path, Message: extractMessage(body), Status: status}
	}
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, q url.Values, reqBody, out any, maxRetries int, isLs bool) error {
	var bodyReader io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, q), bodyReader)
	if err != nil {
		return err
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doWithRetry(req, maxRetries)
	if err != nil {
		var aerr *Error
		if errors.As(err, &aerr) {
			aerr.Path = path
			return aerr
		}
		return &Error{Kind: ErrTransport, Path: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(path, resp.StatusCode, respBody, isLs)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) Health(ctx context.Context) (*HealthInfo, error) {
	var out HealthInfo
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, nil, &out, c.MaxRetries, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Ls(ctx context.Context, path string) ([]Entry, error) {
	q := url.Values{"path": {path}}
	var out struct {
		Entries []Entry `json:"entries"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/ls", q, nil, &out, c.MaxRetries, true); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *HTTPClient) Stat(ctx context.Context, path string) (*Entry, error) {
	q := url.Values{"path": {path}}
	var out Entry
	if err := c.doJSON(ctx, http.MethodGet, "/stat", q, nil, &out, c.MaxRetries, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cat streams the requested range. The caller must Close the returned
// reader on every exit path, including cancellation.
func (c *HTTPClient) Cat(ctx context.Context, path string, opts CatOptions) (io.ReadCloser, error) {
	q := url.Values{"path": {path}}
	q.Set("offset", fmt.Sprintf("%d", opts.Offset))
	if opts.Size >= 0 {
		q.Set("size", fmt.Sprintf("%d", opts.Size))
	}
	if opts.Stream {
		q.Set("stream", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/cat", q), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.doWithRetry(req, c.MaxRetries)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Path: path, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, classify(path, resp.StatusCode, body, false)
	}
	return resp.Body, nil
}

// Write is issued with zero retries: retrying a write transparently would
// risk double-appends, which the spec requires the shell to avoid.
func (c *HTTPClient) Write(ctx context.Context, path string, opts WriteOptions) (string, error) {
	q := url.Values{"path": {path}}

	var body io.Reader
	if opts.Reader != nil {
		body = opts.Reader
	} else {
		body = bytes.NewReader(opts.Data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/write", q), body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if opts.Reader != nil {
		req.ContentLength = -1 // force chunked transfer encoding
	}

	resp, err := c.doWithRetry(req, 0)
	if err != nil {
		return "", &Error{Kind: ErrTransport, Path: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classify(path, resp.StatusCode, respBody, false)
	}
	return string(respBody), nil
}

func (c *HTTPClient) Create(ctx context.Context, path string) (*Entry, error) {
	var out Entry
	if err := c.doJSON(ctx, http.MethodPost, "/create", url.Values{"path": {path}}, nil, &out, 0, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Mkdir(ctx context.Context, path string, mode uint32) (*Entry, error) {
	reqBody := map[string]any{"path": path, "mode": mode}
	var out Entry
	if err := c.doJSON(ctx, http.MethodPost, "/mkdir", nil, reqBody, &out, 0, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Rm(ctx context.Context, path string, recursive bool) error {
	q := url.Values{"path": {path}}
	if recursive {
		q.Set("recursive", "1")
	}
	return c.doJSON(ctx, http.MethodDelete, "/rm", q, nil, nil, 0, false)
}

func (c *HTTPClient) Mv(ctx context.Context, oldPath, newPath string) error {
	reqBody := map[string]any{"old": oldPath, "new": newPath}
	return c.doJSON(ctx, http.MethodPost, "/mv", nil, reqBody, nil, 0, false)
}

func (c *HTTPClient) Chmod(ctx context.Context, path string, mode uint32) error {
	reqBody := map[string]any{"path": path, "mode": mode}
	return c.doJSON(ctx, http.MethodPost, "/chmod", nil, reqBody, nil, 0, false)
}

func (c *HTTPClient) Grep(ctx context.Context, path string, opts GrepOptions) (*GrepResult, error) {
	q := url.Values{"path": {path}, "pattern": {opts.Pattern}}
	if opts.Recursive {
		q.Set("recursive", "1")
	}
	if opts.CaseInsensitive {
		q.Set("i", "1")
	}
	if opts.Stream {
		q.Set("stream", "1")
	}
	var out GrepResult
	if err := c.doJSON(ctx, http.MethodGet, "/grep", q, nil, &out, c.MaxRetries, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Mounts(ctx context.Context) ([]Mount, error) {
	var out struct {
		Mounts []Mount `json:"mounts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/mounts", nil, nil, &out, c.MaxRetries, false); err != nil {
		return nil, err
	}
	return out.Mounts, nil
}

func (c *HTTPClient) Mount(ctx context.Context, fstype, path string, config map[string]string) error {
	reqBody := map[string]any{"fstype": fstype, "path": path, "config": config}
	return c.doJSON(ctx, http.MethodPost, "/mount", nil, reqBody, nil, 0, false)
}

func (c *HTTPClient) Unmount(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodPost, "/unmount", nil, map[string]any{"path": path}, nil, 0, false)
}

func (c *HTTPClient) LoadPlugin(ctx context.Context, uri string) error {
	return c.doJSON(ctx, http.MethodPost, "/plugins/load", nil, map[string]any{"uri": uri}, nil, 0, false)
}

func (c *HTTPClient) UnloadPlugin(ctx context.Context, uri string) error {
	return c.doJSON(ctx, http.MethodPost, "/plugins/unload", nil, map[string]any{"uri": uri}, nil, 0, false)
}

func (c *HTTPClient) ListPlugins(ctx context.Context) ([]string, error) {
	var out struct {
		Plugins []string `json:"plugins"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/plugins", nil, nil, &out, c.MaxRetries, false); err != nil {
		return nil, err
	}
	return out.Plugins, nil
}

var _ Client = (*HTTPClient)(nil)
