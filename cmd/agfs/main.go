package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/agfsapi"
	"github.com/agfs-project/agfs-shell/internal/config"
	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/shell"

	// Register commands
	_ "github.com/agfs-project/agfs-shell/internal/commands"
)

// usage: agfs [--agfs-api-baseurl URL] [-c "command string"] [script.sh [args...]] [command args...]
//
// Mode selection (first match wins): -c executes the string and exits
// with its status; a regular file path argument runs as a script; any
// remaining arguments run as a single command; otherwise the REPL
// starts. Flags are parsed by hand rather than with pflag because
// everything after them belongs to the script/command, not to agfs
// itself - a generic flag parser would try (and fail) to interpret a
// downstream command's own "-l" or "-v".
func main() {
	baseURL := ""
	commandString := ""
	var rest []string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--agfs-api-baseurl":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "agfs: --agfs-api-baseurl requires a URL argument")
				os.Exit(2)
			}
			i++
			baseURL = args[i]
		case strings.HasPrefix(args[i], "--agfs-api-baseurl="):
			baseURL = strings.TrimPrefix(args[i], "--agfs-api-baseurl=")
		case args[i] == "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "agfs: -c requires a command string argument")
				os.Exit(2)
			}
			i++
			commandString = args[i]
		default:
			rest = append(rest, args[i:]...)
			i = len(args)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "agfs: error loading config: %v\n", err)
		os.Exit(1)
	}
	if baseURL == "" {
		baseURL = cfg.APIURL
	}

	client := agfsapi.NewHTTPClient(baseURL)
	sess := session.NewSession(client, agfsapi.NewDirCache())
	sess.BaseURL = baseURL
	sess.MaxMemoryBufferMB = cfg.MaxMemoryBufferMB
	if histFile := cfg.HistFile; histFile != "" {
		sess.HistFile = histFile
	}
	for k, v := range cfg.Aliases {
		sess.Aliases[k] = v
	}

	ctx := context.Background()

	switch {
	case commandString != "":
		// Mode 1: -c "command string"
		os.Exit(runLine(ctx, sess, commandString))

	case len(rest) > 0 && isRegularFile(rest[0]):
		// Mode 2: script file
		os.Exit(shell.RunScript(ctx, sess, rest[0]))

	case len(rest) > 0:
		// Mode 3: remaining args as a single command
		os.Exit(runLine(ctx, sess, strings.Join(rest, " ")))

	default:
		// Mode 4: interactive REPL
		if _, err := client.Health(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "agfs: %v\n", err)
			os.Exit(1)
		}
		sh, err := shell.New(sess)
		if err != nil {
			fmt.Fprintf(os.Stderr, "agfs: failed to start shell: %v\n", err)
			os.Exit(1)
		}
		sh.Run()
	}
}

func runLine(ctx context.Context, sess *session.Session, line string) int {
	chain, err := shell.ParseCommandChain(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agfs: %v\n", err)
		return 2
	}
	if chain == nil {
		return 0
	}
	if err := chain.Execute(ctx, sess); err != nil {
		fmt.Fprintf(os.Stderr, "agfs: %v\n", err)
	}
	return sess.ExitCode()
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
