package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands)+2)
	for _, c := range commands {
		items = append(items, readline.PcItem(c.name))
	}
	items = append(items, readline.PcItem("help"), readline.PcItem("quit"))
	return readline.NewPrefixCompleter(items...)
}

// runShell reads commands until quit, EOF or ctx ends.
func runShell(ctx context.Context, a *app) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tapo> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	printShellHelp(out)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			return nil
		}
		if execLine(ctx, a, line, out) {
			fmt.Fprintln(out, "Exiting...")
			return nil
		}
	}
}

// execLine runs one shell line and reports whether the shell should exit.
func execLine(ctx context.Context, a *app, line string, w io.Writer) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	name := strings.ToLower(parts[0])

	switch name {
	case "help", "?":
		printShellHelp(w)
		return false
	case "quit", "exit", "q":
		return true
	}

	cmd, ok := lookup(name)
	if !ok {
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", name)
		return false
	}
	if err := cmd.run(ctx, a, parts[1:], w); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return false
}

func printShellHelp(w io.Writer) {
	fmt.Fprintln(w, "\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-24s %s\n", c.name+" "+c.args, c.summary)
	}
	fmt.Fprintf(w, "  %-24s %s\n", "help", "Show this help")
	fmt.Fprintf(w, "  %-24s %s\n\n", "quit", "Leave the shell")
}
