// Package session holds the process-wide mutable state the engine threads
// through every executor: current directory, environment, history, and the
// AGFS client/cache pair.
package session

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
)

// Session is the Session of the data model: cwd, env, history path, base
// URL, and connection state, shared by reference with the running stage
// but mutated only by the engine between stages (§5).
type Session struct {
	Client            agfsapi.Client
	Cache             *agfsapi.DirCache
	HistoryGetter     func() []string
	Env               map[string]string // includes reserved key "?"
	Aliases           map[string]string
	CWD               string
	HomeDir           string
	PreviousDir       string
	HistFile          string
	BaseURL           string
	MaxMemoryBufferMB int
}

// MaxMemoryBytes returns the max memory buffer size in bytes for the
// Stream Layer's buffer-vs-temp-file decision.
func (s *Session) MaxMemoryBytes() int64 {
	if s.MaxMemoryBufferMB <= 0 {
		return 100 * 1024 * 1024
	}
	return int64(s.MaxMemoryBufferMB) * 1024 * 1024
}

func NewSession(client agfsapi.Client, cache *agfsapi.DirCache) *Session {
	s := &Session{
		CWD:     "/",
		HomeDir: "/",
		Client:  client,
		Cache:   cache,
		Aliases: make(map[string]string),
		Env:     make(map[string]string),
	}
	s.Env["?"] = "0"

	s.Aliases["ll"] = "ls -la"
	s.Aliases["la"] = "ls -a"
	s.Aliases["quit"] = "exit"

	return s
}

// SetExitCode updates the reserved "?" environment key to the decimal
// representation of code (§3 invariant: "?" always holds a valid
// non-negative decimal integer literal after every top-level statement).
func (s *Session) SetExitCode(code int) {
	if code < 0 {
		code = 1
	}
	s.Env["?"] = strconv.Itoa(code)
}

func (s *Session) ExitCode() int {
	n, err := strconv.Atoi(s.Env["?"])
	if err != nil {
		return 0
	}
	return n
}

// ResolvePath implements §4.8's Resolve: absolute paths are normalized as
// given, relative paths are joined to CWD first. The result never escapes
// above "/".
func (s *Session) ResolvePath(path string) string {
	if path == "" {
		return s.CWD
	}
	if path == "-" {
		if s.PreviousDir == "" {
			return s.CWD
		}
		return s.PreviousDir
	}
	if path == "~" {
		return s.HomeDir
	}
	if strings.HasPrefix(path, "~/") {
		return normalize(filepath.Join(s.HomeDir, path[2:]))
	}

	var absolute string
	if filepath.IsAbs(path) {
		absolute = path
	} else {
		absolute = filepath.Join(s.CWD, path)
	}
	return normalize(absolute)
}

// normalize collapses "." / ".." / redundant separators and clamps any
// result that would escape above "/" back to "/" (§4.8).
func normalize(path string) string {
	cleaned := filepath.Clean(path)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}

// ResolvePathArg resolves a user-supplied path argument.
func (s *Session) ResolvePathArg(path string) (string, error) {
	return s.ResolvePath(path), nil
}
