package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agfs-project/agfs-shell/internal/session"
	"github.com/agfs-project/agfs-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:        "mounts",
		Description: "List mounted plugins",
		Usage:       "mounts\n\nLists every plugin currently mounted in the AGFS namespace,\nwith its mount path and plugin type.",
		Run:         mountsCmd,
	})
	Register(&Command{
		Name:        "mount",
		Description: "Mount a plugin at a path",
		Usage:       "mount <fstype> <path> [key=value]...\n\nExamples:\n  mount s3 /buckets/assets bucket=assets region=us-east-1\n  mount local /scratch root=/tmp",
		Run:         mountCmd,
	})
	Register(&Command{
		Name:        "unmount",
		Description: "Unmount a plugin",
		Usage:       "unmount <path>\n\nExamples:\n  unmount /scratch",
		Run:         unmountCmd,
	})
	Register(&Command{
		Name:        "plugin",
		Description: "Load, unload, or list AGFS plugins",
		Usage: `plugin <subcommand> [args]

Subcommands:
  plugin list            List loaded plugins
  plugin load <uri>      Load a plugin from uri
  plugin unload <uri>    Unload a plugin`,
		Run: pluginCmd,
	})
}

func mountsCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	list, err := s.Client.Mounts(ctx)
	if err != nil {
		return fmt.Errorf("mounts: %s", formatClientError(err, ""))
	}
	if len(list) == 0 {
		fmt.Fprintln(env.Stdout, "No mounts.")
		return nil
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	for _, m := range list {
		fmt.Fprintf(env.Stdout, "%-30s %s\n", ui.MutedStyle.Render(m.Path), ui.CommandStyle.Render(m.PluginName))
	}
	return nil
}

func mountCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: mount <fstype> <path> [key=value]...")
	}

	fstype := args[0]
	path, err := s.ResolvePathArg(args[1])
	if err != nil {
		return fmt.Errorf("mount: %v", err)
	}

	config := make(map[string]string)
	for _, kv := range args[2:] {
		idx := strings.Index(kv, "=")
		if idx <= 0 {
			return fmt.Errorf("mount: invalid config entry %q, expected key=value", kv)
		}
		config[kv[:idx]] = kv[idx+1:]
	}

	if err := s.Client.Mount(ctx, fstype, path, config); err != nil {
		return fmt.Errorf("mount: %s", formatClientError(err, args[1]))
	}
	s.Cache.Invalidate(path)
	fmt.Fprintf(env.Stdout, "mounted %s at %s\n", fstype, path)
	return nil
}

func unmountCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: unmount <path>")
	}

	path, err := s.ResolvePathArg(args[0])
	if err != nil {
		return fmt.Errorf("unmount: %v", err)
	}

	if err := s.Client.Unmount(ctx, path); err != nil {
		return fmt.Errorf("unmount: %s", formatClientError(err, args[0]))
	}
	s.Cache.Invalidate(path)
	fmt.Fprintf(env.Stdout, "unmounted %s\n", path)
	return nil
}

func pluginCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: plugin <list|load|unload> [uri]")
	}

	switch args[0] {
	case "list":
		plugins, err := s.Client.ListPlugins(ctx)
		if err != nil {
			return fmt.Errorf("plugin list: %s", formatClientError(err, ""))
		}
		if len(plugins) == 0 {
			fmt.Fprintln(env.Stdout, "No plugins loaded.")
			return nil
		}
		sort.Strings(plugins)
		for _, p := range plugins {
			fmt.Fprintln(env.Stdout, p)
		}
		return nil
	case "load":
		if len(args) < 2 {
			return fmt.Errorf("usage: plugin load <uri>")
		}
		if err := s.Client.LoadPlugin(ctx, args[1]); err != nil {
			return fmt.Errorf("plugin load: %s", formatClientError(err, args[1]))
		}
		fmt.Fprintf(env.Stdout, "loaded %s\n", args[1])
		return nil
	case "unload":
		if len(args) < 2 {
			return fmt.Errorf("usage: plugin unload <uri>")
		}
		if err := s.Client.UnloadPlugin(ctx, args[1]); err != nil {
			return fmt.Errorf("plugin unload: %s", formatClientError(err, args[1]))
		}
		fmt.Fprintf(env.Stdout, "unloaded %s\n", args[1])
		return nil
	default:
		return fmt.Errorf("plugin: unknown subcommand %q", args[0])
	}
}
