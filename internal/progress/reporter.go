package progress

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/bizsync/internal/logging"
	"golang.org/x/term"
)

type fdWriter interface {
	io.Writer
	Fd() uintptr
}

var (
	isTerminal = term.IsTerminal
	termWidth  = func(fd int) int {
		w, _, err := term.GetSize(fd)
		if err != nil || w <= 0 {
			return 80
		}
		return w
	}
)

// NewReporter draws a single-line progress bar when w is a terminal and
// emits one structured log line per update otherwise.
func NewReporter(w io.Writer, log logging.Logger) Func {
	if f, ok := w.(fdWriter); ok && isTerminal(int(f.Fd())) {
		return barFunc(w, termWidth(int(f.Fd())))
	}
	return func(percent int, message string) {
		log.Info(context.Background(), "progress", "percent", percent, "message", message)
	}
}

func barFunc(w io.Writer, width int) Func {
	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}
	return func(percent int, message string) {
		filled := barWidth * percent / 100
		bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
		line := fmt.Sprintf("[%s] %3d%% %s", bar, percent, message)
		if max := width - 1; len(line) > max {
			line = line[:max]
		}
		fmt.Fprintf(w, "\r\033[K%s", line)
		if percent >= 100 {
			fmt.Fprintln(w)
		}
	}
}
