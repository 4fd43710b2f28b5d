package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Console renders events for a human: colored prefixes and a live progress bar
// on a terminal, plain lines otherwise.
type Console struct {
	// out receives every rendered line.
	out io.Writer
	// interactive enables styling and live progress bars.
	interactive bool
	// logPath is referenced by failure summaries.
	logPath string

	// mu guards bar: only one live progress bar is drawn at a time.
	mu  sync.Mutex
	bar bool
}

// NewConsole returns a Console writing to stdout, interactive when stdout is a terminal.
func NewConsole(logPath string) *Console {
	fd := os.Stdout.Fd()

	return NewConsoleWriter(os.Stdout, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd), logPath)
}

// NewConsoleWriter returns a Console writing to out.
func NewConsoleWriter(out io.Writer, interactive bool, logPath string) *Console {
	return &Console{
		out:         out,
		interactive: interactive,
		logPath:     logPath,
	}
}

// Stage prints a plain status line.
func (c *Console) Stage(_ context.Context, format string, args ...any) {
	c.println(fmt.Sprintf(format, args...))
}

// Success prints a terminal success line.
func (c *Console) Success(_ context.Context, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	if c.interactive {
		message = pterm.Success.Sprint(message)
	}

	c.println(message)
}

// Failure prints a one-line summary and points at the durable log.
func (c *Console) Failure(_ context.Context, err error) {
	message := fmt.Sprintf("Something went wrong: %v.", err)
	if c.logPath != "" {
		message += "\n\nCheck the logs: " + c.logPath
	}

	if c.interactive {
		message = pterm.Error.Sprint(message)
	}

	c.println(message)
}

// Progress starts a live progress bar when interactive and no other bar is active.
func (c *Console) Progress(_ context.Context, title string, total int64) Tracker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.interactive || c.bar || total <= 0 {
		return &plainTracker{console: c, title: title}
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(int(total)).
		WithTitle(title).
		WithWriter(c.out).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return &plainTracker{console: c, title: title}
	}

	c.bar = true

	return &barTracker{console: c, bar: bar, title: title}
}

func (c *Console) println(line string) {
	_, _ = fmt.Fprintln(c.out, line)
}

// barTracker drives a pterm progress bar.
type barTracker struct {
	console *Console
	bar     *pterm.ProgressbarPrinter
	title   string
	total   int64
	once    sync.Once
}

func (t *barTracker) Add(n int64) {
	t.total += n
	// The bar stops itself once the declared total is reached.
	if t.bar.IsActive {
		t.bar.Add(int(n))
	}
}

func (t *barTracker) Done() {
	t.once.Do(func() {
		if t.bar.IsActive {
			_, _ = t.bar.Stop()
		}

		t.console.mu.Lock()
		t.console.bar = false
		t.console.mu.Unlock()

		t.console.Success(context.Background(), "%s: %s", t.title, FormatBytes(t.total))
	})
}

// plainTracker prints a single line once the transfer completes.
type plainTracker struct {
	console *Console
	title   string
	total   int64
	once    sync.Once
}

func (t *plainTracker) Add(n int64) {
	t.total += n
}

func (t *plainTracker) Done() {
	t.once.Do(func() {
		t.console.println(fmt.Sprintf("%s: %s", t.title, FormatBytes(t.total)))
	})
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
