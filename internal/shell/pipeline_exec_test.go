package shell_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/commands"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMockCommands registers temporary commands for testing pipelines.
// Returns a cleanup function to remove them.
func setupMockCommands() func() {
	// mock-echo: writes args joined by space to stdout
	commands.Register(&commands.Command{
		Name: "mock-echo",
		Run: func(ctx context.Context, s *session.Session, env *commands.ExecutionEnv, args []string) error {
			fmt.Fprintln(env.Stdout, strings.Join(args, " "))
			return nil
		},
	})

	// mock-reverse: reverses each line from stdin
	commands.Register(&commands.Command{
		Name: "mock-reverse",
		Run: func(ctx context.Context, s *session.Session, env *commands.ExecutionEnv, args []string) error {
			buf, err := io.ReadAll(env.Stdin)
			if err != nil {
				return err
			}
			input := strings.TrimRight(string(buf), "\n")
			lines := strings.Split(input, "\n")
			for i, line := range lines {
				runes := []rune(line)
				for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
					runes[i], runes[j] = runes[j], runes[i]
				}
				lines[i] = string(runes)
			}
			fmt.Fprintln(env.Stdout, strings.Join(lines, "\n"))
			return nil
		},
	})

	// mock-upper: converts stdin to uppercase
	commands.Register(&commands.Command{
		Name: "mock-upper",
		Run: func(ctx context.Context, s *session.Session, env *commands.ExecutionEnv, args []string) error {
			buf, err := io.ReadAll(env.Stdin)
			if err != nil {
				return err
			}
			fmt.Fprint(env.Stdout, strings.ToUpper(string(buf)))
			return nil
		},
	})

	// mock-wc: counts lines
	commands.Register(&commands.Command{
		Name: "mock-wc",
		Run: func(ctx context.Context, s *session.Session, env *commands.ExecutionEnv, args []string) error {
			buf, err := io.ReadAll(env.Stdin)
			if err != nil {
				return err
			}
			input := strings.TrimSpace(string(buf))
			if input == "" {
				fmt.Fprintln(env.Stdout, "0")
				return nil
			}
			lines := strings.Split(input, "\n")
			fmt.Fprintf(env.Stdout, "%d\n", len(lines))
			return nil
		},
	})

	// mock-fail: always returns an error
	commands.Register(&commands.Command{
		Name: "mock-fail",
		Run: func(ctx context.Context, s *session.Session, env *commands.ExecutionEnv, args []string) error {
			return fmt.Errorf("mock-fail: boom")
		},
	})

	return func() {
		delete(commands.Registry, "mock-echo")
		delete(commands.Registry, "mock-reverse")
		delete(commands.Registry, "mock-upper")
		delete(commands.Registry, "mock-wc")
		delete(commands.Registry, "mock-fail")
	}
}

// newTestSession wires a MockClient whose Write captures the bytes sent
// to "/output.txt" (the CWD-resolved form of "output.txt") so assertions
// can inspect exactly what the pipeline's redirection chain produced.
func newTestSession(captured *bytes.Buffer) *session.Session {
	mockClient := &agfsapi.MockClient{
		WriteFunc: func(ctx context.Context, path string, opts agfsapi.WriteOptions) (string, error) {
			var data []byte
			if opts.Reader != nil {
				data, _ = io.ReadAll(opts.Reader)
			} else {
				data = opts.Data
			}
			if path == "/output.txt" {
				captured.Write(data)
				return "ok", nil
			}
			return "ok", nil
		},
		StatFunc: func(ctx context.Context, path string) (*agfsapi.Entry, error) {
			return nil, &agfsapi.Error{Kind: agfsapi.ErrNotFound, Path: path}
		},
	}
	return session.NewSession(mockClient, agfsapi.NewDirCache())
}

func TestPipeline_Execute_FourCommands(t *testing.T) {
	cleanup := setupMockCommands()
	defer cleanup()

	var capturedOutput bytes.Buffer
	s := newTestSession(&capturedOutput)

	// mock-echo "hello world" -> reverse -> upper -> wc -> output.txt
	// 1. "hello world"
	// 2. "dlrow olleh"
	// 3. "DLROW OLLEH"
	// 4. "1" (line count)
	input := "mock-echo hello world | mock-reverse | mock-upper | mock-wc > output.txt"

	pipeline, err := shell.ParsePipeline(input)
	require.NoError(t, err)

	err = pipeline.Execute(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "1\n", capturedOutput.String())
	assert.Equal(t, 0, s.ExitCode())
}

func TestPipeline_Execute_DataTransformation(t *testing.T) {
	cleanup := setupMockCommands()
	defer cleanup()

	var capturedOutput bytes.Buffer
	s := newTestSession(&capturedOutput)

	// mock-echo "abc" -> reverse -> upper -> output.txt
	// 1. "abc"
	// 2. "cba"
	// 3. "CBA"
	input := "mock-echo abc | mock-reverse | mock-upper > output.txt"

	pipeline, err := shell.ParsePipeline(input)
	require.NoError(t, err)

	err = pipeline.Execute(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "CBA\n", capturedOutput.String())
}

func TestPipeline_Execute_MiddleStageFailureDoesNotAbortPipeline(t *testing.T) {
	cleanup := setupMockCommands()
	defer cleanup()

	var capturedOutput bytes.Buffer
	s := newTestSession(&capturedOutput)

	// mock-fail produces no output, but mock-wc (the last stage) must
	// still run against that empty input and its own exit code wins.
	input := "mock-fail | mock-wc > output.txt"

	pipeline, err := shell.ParsePipeline(input)
	require.NoError(t, err)

	err = pipeline.Execute(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "0\n", capturedOutput.String())
	assert.Equal(t, 0, s.ExitCode())
}

func TestPipeline_Execute_CommandNotFound(t *testing.T) {
	var capturedOutput bytes.Buffer
	s := newTestSession(&capturedOutput)

	pipeline, err := shell.ParsePipeline("does-not-exist-xyz")
	require.NoError(t, err)

	err = pipeline.Execute(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, 127, s.ExitCode())
}

func TestPipeline_Execute_LastStageFailureSetsExitCode(t *testing.T) {
	cleanup := setupMockCommands()
	defer cleanup()

	var capturedOutput bytes.Buffer
	s := newTestSession(&capturedOutput)

	pipeline, err := shell.ParsePipeline("mock-fail")
	require.NoError(t, err)

	err = pipeline.Execute(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, 1, s.ExitCode())
}
