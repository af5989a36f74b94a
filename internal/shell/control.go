package shell

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/session"
)

// IsForHeader reports whether a trimmed line opens a for-loop block.
func IsForHeader(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "for ")
}

// IsIfHeader reports whether a trimmed line opens an if block.
func IsIfHeader(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "if ")
}

// forBlock is a parsed "for VAR in item1 item2 ...; do ... done" block.
type forBlock struct {
	Var   string
	Items []string
	Body  []string
}

// parseForLoop parses the raw lines of a for block, starting with the
// "for ... do" header and ending just before "done". The header's do may
// be on its own line, trailing the "in ..." line, or leading the first
// body line - all three forms appear in real scripts.
func parseForLoop(lines []string) (*forBlock, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("for: empty block")
	}

	header := strings.TrimSpace(lines[0])
	rest := lines[1:]

	header = strings.TrimPrefix(header, "for ")
	doInline := false
	if idx := strings.Index(header, ";"); idx >= 0 {
		tail := strings.TrimSpace(header[idx+1:])
		header = strings.TrimSpace(header[:idx])
		if tail == "do" {
			doInline = true
		} else if strings.HasPrefix(tail, "do ") {
			doInline = true
			rest = append([]string{strings.TrimPrefix(tail, "do ")}, rest...)
		}
	}
	if strings.HasSuffix(header, " do") {
		header = strings.TrimSpace(strings.TrimSuffix(header, " do"))
		doInline = true
	}

	parts := strings.SplitN(header, " in ", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("for: syntax error, expected \"for VAR in ITEMS\"")
	}
	varName := strings.TrimSpace(parts[0])
	itemsStr := strings.TrimSpace(parts[1])

	if !doInline {
		for len(rest) > 0 {
			line := strings.TrimSpace(rest[0])
			rest = rest[1:]
			if line == "do" {
				break
			}
			if strings.HasPrefix(line, "do ") {
				rest = append([]string{strings.TrimPrefix(line, "do ")}, rest...)
				break
			}
			if line != "" {
				return nil, fmt.Errorf("for: expected \"do\"")
			}
		}
	}

	var body []string
	depth := 0
	for _, l := range rest {
		t := strings.TrimSpace(l)
		if IsForHeader(t) {
			depth++
		} else if t == "done" {
			if depth == 0 {
				break
			}
			depth--
		}
		body = append(body, l)
	}

	return &forBlock{Var: varName, Items: splitItems(itemsStr), Body: body}, nil
}

func splitItems(s string) []string {
	return strings.Fields(s)
}

// ExecuteForLoop expands the item list, then runs the body once per item
// with the loop variable set in the session environment, recursing into
// nested for/if blocks exactly as it would handle a top-level line.
func ExecuteForLoop(ctx context.Context, sess *session.Session, lines []string) (int, error) {
	block, err := parseForLoop(lines)
	if err != nil {
		sess.SetExitCode(2)
		return 2, err
	}

	expandedItems := ExpandVariables(sess, strings.Join(block.Items, " "))
	items := splitItems(expandedItems)

	lastCode := 0
	for _, item := range items {
		sess.Env[block.Var] = item
		code, err := executeBlockLines(ctx, sess, block.Body, false)
		lastCode = code
		if err != nil {
			return lastCode, err
		}
	}
	sess.SetExitCode(lastCode)
	return lastCode, nil
}

// ifBlock is a parsed "if COND; then ... [elif COND; then ...] [else ...] fi".
type ifBlock struct {
	Conditions []ifCondition
	ElseBlock  []string
}

type ifCondition struct {
	Cond string
	Body []string
}

func parseIfStatement(lines []string) (*ifBlock, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("if: empty block")
	}

	block := &ifBlock{}
	cond := strings.TrimPrefix(strings.TrimSpace(lines[0]), "if ")
	rest := lines[1:]

	for {
		var bodyLines []string
		pendingTail := ""

		if idx := strings.Index(cond, ";"); idx >= 0 {
			tail := strings.TrimSpace(cond[idx+1:])
			cond = strings.TrimSpace(cond[:idx])
			pendingTail = strings.TrimPrefix(tail, "then")
			pendingTail = strings.TrimSpace(pendingTail)
		} else {
			for len(rest) > 0 {
				line := strings.TrimSpace(rest[0])
				rest = rest[1:]
				if line == "then" {
					break
				}
				if strings.HasPrefix(line, "then ") {
					pendingTail = strings.TrimPrefix(line, "then ")
					break
				}
				if line != "" {
					return nil, fmt.Errorf("if: expected \"then\"")
				}
			}
		}
		if pendingTail != "" {
			bodyLines = append(bodyLines, pendingTail)
		}

		terminator := ""
		depth := 0
		for len(rest) > 0 {
			line := strings.TrimSpace(rest[0])
			if depth == 0 && line == "fi" {
				rest = rest[1:]
				terminator = "fi"
				break
			}
			if depth == 0 && line == "else" {
				rest = rest[1:]
				terminator = "else"
				break
			}
			if depth == 0 && strings.HasPrefix(line, "elif ") {
				rest = rest[1:]
				terminator = line
				break
			}
			if IsIfHeader(line) {
				depth++
			} else if line == "fi" {
				depth--
			}
			bodyLines = append(bodyLines, rest[0])
			rest = rest[1:]
		}

		block.Conditions = append(block.Conditions, ifCondition{Cond: cond, Body: bodyLines})

		switch {
		case terminator == "fi" || terminator == "":
			return block, nil
		case terminator == "else":
			var elseLines []string
			elseDepth := 0
			for len(rest) > 0 {
				t := strings.TrimSpace(rest[0])
				if elseDepth == 0 && t == "fi" {
					rest = rest[1:]
					break
				}
				if IsIfHeader(t) {
					elseDepth++
				} else if t == "fi" {
					elseDepth--
				}
				elseLines = append(elseLines, rest[0])
				rest = rest[1:]
			}
			block.ElseBlock = elseLines
			return block, nil
		default: // elif
			cond = strings.TrimPrefix(terminator, "elif ")
		}
	}
}

// ExecuteIfStatement evaluates each condition in order and runs the first
// matching block, falling back to the else block if none match.
func ExecuteIfStatement(ctx context.Context, sess *session.Session, lines []string) (int, error) {
	block, err := parseIfStatement(lines)
	if err != nil {
		sess.SetExitCode(2)
		return 2, err
	}

	for _, c := range block.Conditions {
		code, err := executeBlockLines(ctx, sess, []string{c.Cond}, false)
		if err != nil {
			return code, err
		}
		if code == 0 {
			return executeBlockLines(ctx, sess, c.Body, false)
		}
	}
	if block.ElseBlock != nil {
		return executeBlockLines(ctx, sess, block.ElseBlock, false)
	}
	sess.SetExitCode(0)
	return 0, nil
}

// executeBlockLines runs a body of raw lines sequentially, recursing into
// nested for/if blocks by consuming lines until their matching
// terminator, and running everything else as an ordinary command line.
// for/if bodies keep going after a non-zero exit the way a shell body
// normally does; stopOnFailure is set only by the top-level script
// runner, which stops at the first failing statement (§6.1).
func executeBlockLines(ctx context.Context, sess *session.Session, lines []string, stopOnFailure bool) (int, error) {
	lastCode := 0
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			i++
			continue
		}

		switch {
		case IsForHeader(trimmed):
			end, depth := i, 0
			for ; end < len(lines); end++ {
				t := strings.TrimSpace(lines[end])
				if IsForHeader(t) {
					depth++
				} else if t == "done" {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			code, err := ExecuteForLoop(ctx, sess, lines[i:end+1])
			lastCode = code
			if err != nil {
				return lastCode, err
			}
			if stopOnFailure && lastCode != 0 {
				return lastCode, nil
			}
			i = end + 1

		case IsIfHeader(trimmed):
			end, depth := i, 0
			for ; end < len(lines); end++ {
				t := strings.TrimSpace(lines[end])
				if IsIfHeader(t) {
					depth++
				} else if t == "fi" {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			code, err := ExecuteIfStatement(ctx, sess, lines[i:end+1])
			lastCode = code
			if err != nil {
				return lastCode, err
			}
			if stopOnFailure && lastCode != 0 {
				return lastCode, nil
			}
			i = end + 1

		default:
			chain, err := ParseCommandChain(line)
			if err != nil {
				if stopOnFailure {
					return 2, err
				}
				fmt.Fprintf(os.Stderr, "agfs: %v\n", err)
				lastCode = 2
				i++
				continue
			}
			if chain != nil {
				if err := chain.Execute(ctx, sess); err != nil {
					lastCode = sess.ExitCode()
					if stopOnFailure {
						return lastCode, err
					}
					fmt.Fprintf(os.Stderr, "agfs: %v\n", err)
					i++
					continue
				}
			}
			lastCode = sess.ExitCode()
			if stopOnFailure && lastCode != 0 {
				return lastCode, nil
			}
			i++
		}
	}
	return lastCode, nil
}
