package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/session"
)

func TestGrepCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		stdin      string
		wantOutput string
		wantErr    bool
		errContain string
	}{
		{
			name:       "simple match",
			args:       []string{"error"},
			stdin:      "line1 error here\nline2 ok\nline3 error again\n",
			wantOutput: "line1 error here\nline3 error again\n",
		},
		{
			name:       "case insensitive",
			args:       []string{"-i", "ERROR"},
			stdin:      "line1 error here\nline2 ok\nline3 Error again\n",
			wantOutput: "line1 error here\nline3 Error again\n",
		},
		{
			name:       "invert match",
			args:       []string{"-v", "error"},
			stdin:      "line1 error here\nline2 ok\nline3 error again\n",
			wantOutput: "line2 ok\n",
		},
		{
			name:       "line numbers",
			args:       []string{"-n", "error"},
			stdin:      "line1 error here\nline2 ok\nline3 error again\n",
			wantOutput: "1:line1 error here\n3:line3 error again\n",
		},
		{
			name:       "count only",
			args:       []string{"-c", "error"},
			stdin:      "line1 error here\nline2 ok\nline3 error again\n",
			wantOutput: "2\n",
		},
		{
			name:       "combined flags",
			args:       []string{"-i", "-n", "ERROR"},
			stdin:      "line1 error here\nline2 ok\nline3 Error again\n",
			wantOutput: "1:line1 error here\n3:line3 Error again\n",
		},
		{
			name:       "regex pattern",
			args:       []string{"err.*here"},
			stdin:      "line1 error here\nline2 ok\nline3 error again\n",
			wantOutput: "line1 error here\n",
		},
		{
			name:       "no matches",
			args:       []string{"notfound"},
			stdin:      "line1 error here\nline2 ok\n",
			wantOutput: "",
		},
		{
			name:       "count zero matches",
			args:       []string{"-c", "notfound"},
			stdin:      "line1 error here\nline2 ok\n",
			wantOutput: "0\n",
		},
		{
			name:       "no pattern",
			args:       []string{},
			stdin:      "some input",
			wantErr:    true,
			errContain: "usage",
		},
		{
			// "usage:" prefix required for stageResult to map this to exit
			// code 2 (invalid input), not the generic exit code 1.
			name:       "invalid regex",
			args:       []string{"[invalid"},
			stdin:      "some input",
			wantErr:    true,
			errContain: "usage: grep: invalid pattern",
		},
		{
			name:       "multiple files rejected",
			args:       []string{"pattern", "file1.txt", "file2.txt"},
			stdin:      "",
			wantErr:    true,
			errContain: "multiple files not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}

			env := &ExecutionEnv{
				Stdout: stdout,
				Stderr: stderr,
				Stdin:  strings.NewReader(tt.stdin),
			}

			// Create minimal session (not needed for stdin-only tests)
			sess := &session.Session{}

			err := grepCmd(context.Background(), sess, env, tt.args)

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errContain)
					return
				}
				if !strings.Contains(err.Error(), tt.errContain) {
					t.Errorf("expected error containing %q, got %q", tt.errContain, err.Error())
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if got := stdout.String(); got != tt.wantOutput {
				t.Errorf("output mismatch:\ngot:  %q\nwant: %q", got, tt.wantOutput)
			}
		})
	}
}

func TestGrepCommand_RecursiveDelegatesToServer(t *testing.T) {
	var gotOpts agfsapi.GrepOptions
	var gotPath string
	mockClient := &agfsapi.MockClient{
		GrepFunc: func(ctx context.Context, path string, opts agfsapi.GrepOptions) (*agfsapi.GrepResult, error) {
			gotPath = path
			gotOpts = opts
			return &agfsapi.GrepResult{
				Matches: []agfsapi.GrepMatch{
					{Path: "/src/a.go", Line: 3, Text: "TODO: fix this"},
					{Path: "/src/b.go", Line: 10, Text: "TODO: rewrite"},
				},
				Total: 2,
			}, nil
		},
	}
	sess := session.NewSession(mockClient, agfsapi.NewDirCache())

	stdout := &bytes.Buffer{}
	env := &ExecutionEnv{Stdout: stdout, Stderr: &bytes.Buffer{}}

	err := grepCmd(context.Background(), sess, env, []string{"-r", "TODO", "src"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/src" {
		t.Errorf("expected resolved path /src, got %q", gotPath)
	}
	if gotOpts.Pattern != "TODO" || !gotOpts.Recursive {
		t.Errorf("unexpected grep options: %+v", gotOpts)
	}

	want := "/src/a.go:TODO: fix this\n/src/b.go:TODO: rewrite\n"
	if got := stdout.String(); got != want {
		t.Errorf("output mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestGrepCommand_RecursiveWithFilesOnly(t *testing.T) {
	mockClient := &agfsapi.MockClient{
		GrepFunc: func(ctx context.Context, path string, opts agfsapi.GrepOptions) (*agfsapi.GrepResult, error) {
			return &agfsapi.GrepResult{
				Matches: []agfsapi.GrepMatch{
					{Path: "/src/b.go", Line: 10, Text: "TODO"},
					{Path: "/src/a.go", Line: 3, Text: "TODO"},
					{Path: "/src/a.go", Line: 5, Text: "TODO again"},
				},
			}, nil
		},
	}
	sess := session.NewSession(mockClient, agfsapi.NewDirCache())

	stdout := &bytes.Buffer{}
	env := &ExecutionEnv{Stdout: stdout, Stderr: &bytes.Buffer{}}

	err := grepCmd(context.Background(), sess, env, []string{"-rl", "TODO", "src"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "/src/a.go\n/src/b.go\n"
	if got := stdout.String(); got != want {
		t.Errorf("output mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestGrepCommand_RecursiveRejectsInvert(t *testing.T) {
	sess := session.NewSession(&agfsapi.MockClient{}, agfsapi.NewDirCache())
	env := &ExecutionEnv{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	err := grepCmd(context.Background(), sess, env, []string{"-rv", "TODO", "src"})
	if err == nil || !strings.Contains(err.Error(), "-v is not supported") {
		t.Errorf("expected -v/-r conflict error, got %v", err)
	}
}

func TestGrepCommand_RecursiveRequiresDirArg(t *testing.T) {
	sess := session.NewSession(&agfsapi.MockClient{}, agfsapi.NewDirCache())
	env := &ExecutionEnv{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	err := grepCmd(context.Background(), sess, env, []string{"-r", "TODO"})
	if err == nil || !strings.Contains(err.Error(), "requires a directory") {
		t.Errorf("expected directory-argument error, got %v", err)
	}
}
