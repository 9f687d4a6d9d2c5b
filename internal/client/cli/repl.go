package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to. The real
// App satisfies it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Touch()
	Dismiss()
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Books(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Reserve(ctx context.Context, args []string) error
	Borrowed(ctx context.Context) error
	Requested(ctx context.Context) error
	Profile(ctx context.Context) error
	Categories(ctx context.Context) error
	Remind(ctx context.Context, args []string) error
	RemindAll(ctx context.Context, args []string) error
}

// runREPL reads commands line by line and dispatches them. Every command
// counts as activity on the session. Handler errors are reported by the
// handlers themselves; the loop only moves on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	printlnFn("Library CLI (type 'help' for commands)")

	for {
		printlnFn(fmt.Sprintf("lib %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		a.Touch()

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: books [page], search <title|author|isbn|all> <term>, show <n>, reserve <n>, borrowed, requested, profile, categories, remind <n>, remindall <n>, dismiss, logout, exit")
			} else {
				printlnFn("Available commands: login, books [page], search, categories, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "b", "books":
			_ = a.Books(ctx, args)

		case "search":
			_ = a.Search(ctx, args)

		case "show":
			_ = a.Show(ctx, args)

		case "reserve":
			_ = a.Reserve(ctx, args)

		case "borrowed":
			_ = a.Borrowed(ctx)

		case "requested":
			_ = a.Requested(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "categories":
			_ = a.Categories(ctx)

		case "remind":
			_ = a.Remind(ctx, args)

		case "remindall":
			_ = a.RemindAll(ctx, args)

		case "dismiss":
			a.Dismiss()

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
