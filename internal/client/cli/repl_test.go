package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls   []string
	touches int
	lastArg []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Touch()           { f.touches++ }
func (f *fakeExec) Dismiss()         { f.calls = append(f.calls, "dismiss") }
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Books(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "books")
	f.lastArg = args
	return nil
}
func (f *fakeExec) Search(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "search")
	f.lastArg = args
	return nil
}
func (f *fakeExec) Show(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "show")
	f.lastArg = args
	return nil
}
func (f *fakeExec) Reserve(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "reserve")
	f.lastArg = args
	return nil
}
func (f *fakeExec) Borrowed(ctx context.Context) error {
	f.calls = append(f.calls, "borrowed")
	return nil
}
func (f *fakeExec) Requested(ctx context.Context) error {
	f.calls = append(f.calls, "requested")
	return nil
}
func (f *fakeExec) Profile(ctx context.Context) error {
	f.calls = append(f.calls, "profile")
	return nil
}
func (f *fakeExec) Categories(ctx context.Context) error {
	f.calls = append(f.calls, "categories")
	return nil
}
func (f *fakeExec) Remind(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "remind")
	f.lastArg = args
	return nil
}
func (f *fakeExec) RemindAll(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "remindall")
	return nil
}

func muteOutput(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}

func TestRunREPL_DispatchAndExit(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"books 2",
		"search title go",
		"show 1",
		"reserve 1",
		"borrowed",
		"requested",
		"profile",
		"categories",
		"remind 1",
		"remindall 1",
		"dismiss",
		"bogus",
		"logout",
		"exit",
		"books",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login", "books", "search", "show", "reserve",
		"borrowed", "requested", "profile", "categories",
		"remind", "remindall", "dismiss", "logout",
	}, exec.calls)
}

func TestRunREPL_EveryCommandTouchesSession(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader("help\nbooks\nbogus\nexit\n")
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	// help, books, bogus and exit all count as activity
	assert.Equal(t, 4, exec.touches)
}

func TestRunREPL_EmptyLinesSkipped(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader("\n\n   \nexit\n")
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	assert.Empty(t, exec.calls)
	assert.Equal(t, 1, exec.touches)
}

func TestRunREPL_ArgsPassedThrough(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader("search author ann smith\nexit\n")
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	assert.Equal(t, []string{"author", "ann", "smith"}, exec.lastArg)
}
