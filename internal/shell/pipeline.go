package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/commands"
	"github.com/agfs-project/agfs-shell/internal/session"
)

// CommandChain represents a sequence of pipelines connected by &&, ||, or ;
type CommandChain struct {
	Commands []ChainedPipeline
}

// ChainedPipeline is a pipeline with the operator connecting it to the next pipeline
type ChainedPipeline struct {
	Pipeline *Pipeline
	Operator ChainOperator // operator AFTER this pipeline
}

// Pipeline represents a parsed command line with optional piping and redirection.
type Pipeline struct {
	Segments []*Segment
}

// RedirectTarget is one link of an output-redirection chain. `cmd > a > b`
// produces two targets for a single stage: a fires first, then b is fed
// a's write response instead of the stage's own stdout (§4.5).
type RedirectTarget struct {
	Path   string
	Append bool
}

// Segment is a single command in a pipeline with optional redirection.
type Segment struct {
	Args        []string
	CommandName string
	InputFile   string // < file
	OutputFiles []RedirectTarget
	ErrorFiles  []RedirectTarget
	MergeStderr bool // 2>&1

	// HeredocDelim is the delimiter word of a "<<DELIM" redirection on
	// this segment, set during parsing. The REPL driver fills in
	// HeredocBody with the accumulated lines once it has read through
	// to the matching delimiter line; pipeline parsing alone can't do
	// this since the body spans lines beyond the one being parsed.
	HeredocDelim string
	HeredocBody  *string

	// CaptureStdout, when set, receives this stage's stdout instead of it
	// going to a file or the terminal. Only the expansion layer sets this
	// (for $(...) / backtick command substitution); it takes priority
	// over OutputFiles so a substituted command's own redirections (if
	// any) don't leak to the terminal.
	CaptureStdout *bytes.Buffer
}

// ParseCommandChain parses a command line into a CommandChain structure.
// This handles &&, ||, ; operators as well as pipes and redirections.
func ParseCommandChain(line string) (*CommandChain, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	tokens, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	// Split by chain operators (&&, ||, ;)
	chainedCmds := SplitByChain(tokens)

	chain := &CommandChain{}
	for _, cc := range chainedCmds {
		if len(cc.Tokens) == 0 {
			continue // empty command before operator, skip
		}

		pipeline, err := parsePipelineFromTokens(cc.Tokens)
		if err != nil {
			return nil, err
		}

		chain.Commands = append(chain.Commands, ChainedPipeline{
			Pipeline: pipeline,
			Operator: cc.Operator,
		})
	}

	if len(chain.Commands) == 0 {
		return nil, nil
	}

	return chain, nil
}

// parsePipelineFromTokens parses tokens into a Pipeline (handles pipes and redirections)
func parsePipelineFromTokens(tokens []Token) (*Pipeline, error) {
	segments := SplitByPipe(tokens)
	pipeline := &Pipeline{}

	for i, segTokens := range segments {
		if len(segTokens) == 0 {
			return nil, fmt.Errorf("syntax error near unexpected token `|'")
		}
		seg, err := parseSegment(segTokens, i == 0, i == len(segments)-1)
		if err != nil {
			return nil, err
		}
		pipeline.Segments = append(pipeline.Segments, seg)
	}
	return pipeline, nil
}

// ParsePipeline parses a command line into a Pipeline structure (legacy, for single pipelines).
func ParsePipeline(line string) (*Pipeline, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	tokens, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	return parsePipelineFromTokens(tokens)
}

// parseSegment extracts command, args, and redirections from tokens.
func parseSegment(tokens []Token, isFirst, isLast bool) (*Segment, error) {
	seg := &Segment{}
	var cmdTokens []Token

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch tok.Type {
		case TokenWord:
			cmdTokens = append(cmdTokens, tok)

		case TokenRedirectIn:
			if !isFirst {
				return nil, fmt.Errorf("input redirection '<' only allowed on first command in pipeline")
			}
			file, err := expectFilename(tokens, i, "<")
			if err != nil {
				return nil, err
			}
			seg.InputFile = file
			i++

		case TokenHeredoc:
			if !isFirst {
				return nil, fmt.Errorf("heredoc '<<' only allowed on first command in pipeline")
			}
			delim, err := expectFilename(tokens, i, "<<")
			if err != nil {
				return nil, err
			}
			seg.HeredocDelim = delim
			i++

		case TokenRedirectOut, TokenRedirectAppend:
			if !isLast {
				return nil, fmt.Errorf("output redirection '%s' only allowed on last command in pipeline", tok.Value)
			}
			file, err := expectFilename(tokens, i, tok.Value)
			if err != nil {
				return nil, err
			}
			seg.OutputFiles = append(seg.OutputFiles, RedirectTarget{Path: file, Append: tok.Type == TokenRedirectAppend})
			i++

		case TokenRedirectErr, TokenRedirectErrAppend:
			if !isLast {
				return nil, fmt.Errorf("error redirection '%s' only allowed on last command in pipeline", tok.Value)
			}
			file, err := expectFilename(tokens, i, tok.Value)
			if err != nil {
				return nil, err
			}
			seg.ErrorFiles = append(seg.ErrorFiles, RedirectTarget{Path: file, Append: tok.Type == TokenRedirectErrAppend})
			i++

		case TokenRedirectAll:
			if !isLast {
				return nil, fmt.Errorf("combined redirection '&>' only allowed on last command in pipeline")
			}
			file, err := expectFilename(tokens, i, "&>")
			if err != nil {
				return nil, err
			}
			seg.OutputFiles = append(seg.OutputFiles, RedirectTarget{Path: file})
			seg.MergeStderr = true
			i++

		case TokenRedirectErrToOut:
			seg.MergeStderr = true
		}
	}

	if len(cmdTokens) == 0 {
		return nil, fmt.Errorf("syntax error: empty command")
	}

	seg.CommandName = cmdTokens[0].Value
	for _, tok := range cmdTokens[1:] {
		seg.Args = append(seg.Args, tok.Value)
	}
	return seg, nil
}

func expectFilename(tokens []Token, i int, op string) (string, error) {
	if i+1 >= len(tokens) || tokens[i+1].Type != TokenWord {
		return "", fmt.Errorf("syntax error: missing filename after '%s'", op)
	}
	return tokens[i+1].Value, nil
}

// Execute runs the command chain, respecting &&, ||, and ; semantics. The
// chain's overall exit code (left in Session.env["?"]) is whichever
// pipeline actually ran last; errors from earlier pipelines are returned
// to the caller as the chain's own error only when they're the last one
// to run.
func (c *CommandChain) Execute(ctx context.Context, sess *session.Session) error {
	if c == nil || len(c.Commands) == 0 {
		return nil
	}

	lastCode := 0
	var lastDiag error
	for i, cp := range c.Commands {
		shouldRun := true
		if i > 0 {
			switch c.Commands[i-1].Operator {
			case ChainAnd:
				shouldRun = lastCode == 0
			case ChainOr:
				shouldRun = lastCode != 0
			case ChainSeq:
				shouldRun = true
			}
		}
		if !shouldRun {
			continue
		}

		lastDiag = cp.Pipeline.Execute(ctx, sess)
		lastCode = sess.ExitCode()
	}

	return lastDiag
}

// Execute runs the pipeline. Stages run strictly sequentially in the host
// thread (§5): stage i's buffered stdout is entirely produced before
// stage i+1 starts, so no stage ever observes a later stage's output.
func (p *Pipeline) Execute(ctx context.Context, sess *session.Session) error {
	if p == nil || len(p.Segments) == 0 {
		return nil
	}

	cmds := make([]*commands.Command, len(p.Segments))
	for i, seg := range p.Segments {
		cmd, ok := commands.Get(seg.CommandName)
		if !ok {
			sess.SetExitCode(127)
			return fmt.Errorf("%s: command not found", seg.CommandName)
		}
		if cmd.NoPipeline && len(p.Segments) > 1 {
			sess.SetExitCode(2)
			return fmt.Errorf("%s: must be the only command in its pipeline", seg.CommandName)
		}
		cmds[i] = cmd
	}

	if len(p.Segments) == 1 {
		return p.executeSingle(ctx, sess, cmds[0], p.Segments[0])
	}
	return p.executeSequential(ctx, sess, cmds)
}

// stageResult maps an executor's returned error to the exit code the
// engine records in Session.env["?"] (spec.md §4.7's exit-code table) and
// to the diagnostic, if any, that should surface to the REPL. A false
// "test" condition is a normal non-zero exit, not a printable failure.
func stageResult(err error) (code int, diag error) {
	if err == nil {
		return 0, nil
	}
	if errors.Is(err, context.Canceled) {
		return 130, nil
	}
	if errors.Is(err, commands.ErrConditionFalse) {
		return 1, nil
	}
	if strings.HasPrefix(err.Error(), "usage:") {
		return 2, err
	}
	return 1, err
}

// executeSingle runs a single command with redirection.
func (p *Pipeline) executeSingle(ctx context.Context, sess *session.Session, cmd *commands.Command, seg *Segment) error {
	stdin, inCloser, err := firstStdin(ctx, sess, seg, os.Stdin)
	if err != nil {
		sess.SetExitCode(1)
		return fmt.Errorf("%s: %v", seg.InputFile, err)
	}
	if inCloser != nil {
		defer inCloser.Close()
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	env := &commands.ExecutionEnv{Stdin: stdin}
	switch {
	case seg.CaptureStdout != nil:
		env.Stdout = seg.CaptureStdout
	case len(seg.OutputFiles) > 0:
		env.Stdout = &stdoutBuf
	default:
		env.Stdout = os.Stdout
	}
	if seg.MergeStderr {
		env.Stderr = env.Stdout
	} else if len(seg.ErrorFiles) > 0 {
		env.Stderr = &stderrBuf
	} else {
		env.Stderr = os.Stderr
	}

	substitutedArgs, err := expandWords(ctx, sess, seg.Args)
	if err != nil {
		sess.SetExitCode(1)
		return err
	}
	expandedArgs, err := ExpandGlobs(ctx, sess, env.Stderr, substitutedArgs, cmd.GlobPolicy)
	if err != nil {
		sess.SetExitCode(1)
		return err
	}

	if commands.HasHelpFlag(expandedArgs) {
		commands.PrintUsage(cmd, env.Stdout)
		sess.SetExitCode(0)
		return flushAndRedirect(ctx, sess, seg, &stdoutBuf, &stderrBuf)
	}

	if handled, bridgeErr := p.tryStreamingBridge(ctx, sess, cmd, seg, env, expandedArgs); handled {
		code, diag := stageResult(bridgeErr)
		sess.SetExitCode(code)
		return diag
	}

	runErr := cmd.Run(ctx, sess, env, expandedArgs)

	if cmd.ChangesCWD && runErr == nil && env.NewCWD != nil {
		sess.PreviousDir = sess.CWD
		sess.CWD = *env.NewCWD
	}

	code, diag := stageResult(runErr)
	sess.SetExitCode(code)

	if redirErr := flushAndRedirect(ctx, sess, seg, &stdoutBuf, &stderrBuf); redirErr != nil {
		sess.SetExitCode(1)
		return redirErr
	}
	return diag
}

// executeSequential runs the pipeline's stages one at a time, feeding each
// stage's captured stdout in as the next stage's stdin. Only the last
// stage's exit code and diagnostic become the pipeline's own (spec.md
// §4.6 step 4); earlier stages' diagnostics are printed as they occur,
// matching how a real pipe's stderr is never buffered.
func (p *Pipeline) executeSequential(ctx context.Context, sess *session.Session, cmds []*commands.Command) error {
	n := len(p.Segments)

	stdin, inCloser, err := firstStdin(ctx, sess, p.Segments[0], os.Stdin)
	if err != nil {
		sess.SetExitCode(1)
		return fmt.Errorf("%s: %v", p.Segments[0].InputFile, err)
	}
	if inCloser != nil {
		defer inCloser.Close()
	}

	lastCode := 0
	var lastDiag error

	for i := 0; i < n; i++ {
		seg := p.Segments[i]
		cmd := cmds[i]
		isLast := i == n-1

		var stdoutBuf, stderrBuf bytes.Buffer
		env := &commands.ExecutionEnv{Stdin: stdin}
		switch {
		case isLast && seg.CaptureStdout != nil:
			env.Stdout = seg.CaptureStdout
		case isLast && len(seg.OutputFiles) == 0:
			env.Stdout = os.Stdout
		default:
			env.Stdout = &stdoutBuf
		}
		switch {
		case seg.MergeStderr:
			env.Stderr = env.Stdout
		case isLast && len(seg.ErrorFiles) > 0:
			env.Stderr = &stderrBuf
		default:
			env.Stderr = os.Stderr
		}

		substitutedArgs, err := expandWords(ctx, sess, seg.Args)
		if err != nil {
			if isLast {
				sess.SetExitCode(1)
				return fmt.Errorf("%s: %v", seg.CommandName, err)
			}
			fmt.Fprintf(os.Stderr, "%s: %v\n", seg.CommandName, err)
			stdin = bytes.NewReader(nil)
			continue
		}
		expandedArgs, err := ExpandGlobs(ctx, sess, env.Stderr, substitutedArgs, cmd.GlobPolicy)
		if err != nil {
			if isLast {
				sess.SetExitCode(1)
				return fmt.Errorf("%s: %v", seg.CommandName, err)
			}
			fmt.Fprintf(os.Stderr, "%s: %v\n", seg.CommandName, err)
			stdin = bytes.NewReader(nil)
			continue
		}

		if commands.HasHelpFlag(expandedArgs) {
			commands.PrintUsage(cmd, env.Stdout)
		} else {
			runErr := cmd.Run(ctx, sess, env, expandedArgs)
			if cmd.ChangesCWD && runErr == nil && env.NewCWD != nil {
				sess.PreviousDir = sess.CWD
				sess.CWD = *env.NewCWD
			}
			code, diag := stageResult(runErr)
			if isLast {
				lastCode, lastDiag = code, diag
			} else if diag != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", seg.CommandName, diag)
			}
		}

		if isLast {
			if err := flushAndRedirect(ctx, sess, seg, &stdoutBuf, &stderrBuf); err != nil {
				sess.SetExitCode(1)
				return err
			}
		} else {
			stdin = bytes.NewReader(stdoutBuf.Bytes())
		}
	}

	sess.SetExitCode(lastCode)
	return lastDiag
}

// PendingHeredocDelim returns the delimiter the chain's leading pipeline
// stage is waiting on, if its heredoc body hasn't been attached yet, so
// the REPL can read it before executing.
func (c *CommandChain) PendingHeredocDelim() (string, bool) {
	if c == nil || len(c.Commands) == 0 {
		return "", false
	}
	p := c.Commands[0].Pipeline
	if p == nil || len(p.Segments) == 0 {
		return "", false
	}
	seg := p.Segments[0]
	if seg.HeredocDelim != "" && seg.HeredocBody == nil {
		return seg.HeredocDelim, true
	}
	return "", false
}

// AttachHeredocBody fills in the leading stage's heredoc content once the
// REPL has read through to the matching delimiter line.
func (c *CommandChain) AttachHeredocBody(body string) {
	if c == nil || len(c.Commands) == 0 {
		return
	}
	p := c.Commands[0].Pipeline
	if p == nil || len(p.Segments) == 0 {
		return
	}
	p.Segments[0].HeredocBody = &body
}

// resolveStdin opens the "<" input source for a pipeline's first stage,
// or falls back to the supplied default when no redirection is present.
func resolveStdin(ctx context.Context, sess *session.Session, inputFile string, fallback io.Reader) (io.Reader, io.Closer, error) {
	if inputFile == "" {
		return fallback, nil, nil
	}
	rfr, err := NewRemoteFileReader(ctx, sess, inputFile)
	if err != nil {
		return nil, nil, err
	}
	return rfr, rfr, nil
}

// firstStdin resolves the pipeline's leading stage's stdin source, giving
// a heredoc body (if the REPL attached one) priority over "<file" and the
// caller-supplied fallback.
func firstStdin(ctx context.Context, sess *session.Session, seg *Segment, fallback io.Reader) (io.Reader, io.Closer, error) {
	if seg.HeredocBody != nil {
		return strings.NewReader(*seg.HeredocBody), nil, nil
	}
	return resolveStdin(ctx, sess, seg.InputFile, fallback)
}

// flushAndRedirect applies a stage's output/error redirection chains (if
// any) to its buffered stdout/stderr, once the stage has fully run.
func flushAndRedirect(ctx context.Context, sess *session.Session, seg *Segment, stdoutBuf, stderrBuf *bytes.Buffer) error {
	if len(seg.OutputFiles) > 0 {
		if err := writeRedirectChain(ctx, sess, seg.OutputFiles, stdoutBuf.Bytes()); err != nil {
			return err
		}
	}
	if seg.MergeStderr || len(seg.ErrorFiles) == 0 {
		return nil
	}
	return writeRedirectChain(ctx, sess, seg.ErrorFiles, stderrBuf.Bytes())
}

// writeRedirectChain implements the chained-redirection semantics of
// spec.md §4.5: write to the first target, then feed the write's server
// response (not the original bytes) into the next target, and so on. An
// empty response followed by another target in the chain is a hard stop.
func writeRedirectChain(ctx context.Context, sess *session.Session, targets []RedirectTarget, data []byte) error {
	content := data
	for i, t := range targets {
		w, err := openOutputWriter(ctx, sess, t.Path, t.Append)
		if err != nil {
			return fmt.Errorf("%s: %v", t.Path, err)
		}
		if _, err := w.Write(content); err != nil {
			w.Close()
			return fmt.Errorf("%s: %v", t.Path, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("%s: %v", t.Path, err)
		}

		if i < len(targets)-1 {
			resp := w.Response()
			if resp == "" {
				return fmt.Errorf("%s: empty write response, cannot continue redirection chain", t.Path)
			}
			content = []byte(resp)
		}
	}
	return nil
}

// tryStreamingBridge implements the direct streaming bridge (§4.6): a
// single-stage, supports_streaming command with no arguments, a single
// ">" target and no pre-fed stdin writes straight through to AGFS
// via the client's chunked-transfer Write path instead of buffering the
// whole stage's stdout in memory first. The client surface (§6.3) has no
// incremental-append primitive, so an append target falls back to the
// ordinary buffered path, which already reads-then-concatenates.
func (p *Pipeline) tryStreamingBridge(ctx context.Context, sess *session.Session, cmd *commands.Command, seg *Segment, env *commands.ExecutionEnv, expandedArgs []string) (bool, error) {
	if len(p.Segments) != 1 || !cmd.SupportsStreaming || len(expandedArgs) != 0 {
		return false, nil
	}
	if len(seg.OutputFiles) != 1 || seg.InputFile != "" || seg.MergeStderr {
		return false, nil
	}
	target := seg.OutputFiles[0]
	if target.Append || target.Path == "/dev/null" {
		return false, nil
	}

	destResolved, err := sess.ResolvePathArg(target.Path)
	if err != nil {
		return true, err
	}

	_, err = sess.Client.Write(ctx, destResolved, agfsapi.WriteOptions{Reader: env.Stdin})
	if err != nil {
		return true, fmt.Errorf("%s: %v", target.Path, err)
	}
	sess.Cache.Invalidate(filepath.Dir(destResolved))
	return true, nil
}

// chainWriteCloser is what a redirection target writes through: an
// ordinary sink plus the server response needed to continue a chain.
type chainWriteCloser interface {
	io.Writer
	io.Closer
	Response() string
}

// openOutputWriter returns a writer for the given path, handling /dev/null.
func openOutputWriter(ctx context.Context, sess *session.Session, path string, append bool) (chainWriteCloser, error) {
	if path == "/dev/null" || path == "dev/null" {
		return devNull{}, nil
	}
	return NewRemoteFileWriterWithMode(ctx, sess, path, append)
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }
func (devNull) Close() error                { return nil }
func (devNull) Response() string            { return "" }
