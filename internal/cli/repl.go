package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// commander is the command surface the REPL needs. App satisfies it;
// tests use a stub.
type commander interface {
	isLoggedIn() bool
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Backup(ctx context.Context) error
	Restore(ctx context.Context) error
	Status(ctx context.Context) error
}

func printHelp(out io.Writer, loggedIn bool) {
	if loggedIn {
		fmt.Fprintln(out, "Available commands: backup, restore, status, whoami, logout, exit")
		return
	}
	fmt.Fprintln(out, "Available commands: login <token>, exit")
}

// runREPL reads commands line by line until EOF, exit/quit or ctx is
// done. Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a commander, statusFn func() string, in io.Reader, out io.Writer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprintf(out, "bizsync %s> ", statusFn())

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printHelp(out, a.isLoggedIn())
		case "login":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: login <token>")
				continue
			}
			err = a.Login(ctx, args[0])
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.Whoami(ctx)
		case "backup":
			err = a.Backup(ctx)
		case "restore":
			err = a.Restore(ctx)
		case "status":
			err = a.Status(ctx)
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}
