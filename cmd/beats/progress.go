package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/api"
)

// terminalProgress prints run progress to stderr. Terminals get a single
// updating line; pipes get one line per scene.
type terminalProgress struct {
	w   io.Writer
	tty bool
}

func newTerminalProgress() *terminalProgress {
	return &terminalProgress{w: os.Stderr, tty: api.IsTerminal(os.Stderr)}
}

func (p *terminalProgress) Progress(processed, total int, label string) {
	line := fmt.Sprintf("[%d/%d] %s", processed, total, label)
	if p.tty {
		fmt.Fprintf(p.w, "\r\033[K%s", line)
		if processed == total {
			fmt.Fprintln(p.w)
		}
		return
	}
	fmt.Fprintln(p.w, line)
}

func (p *terminalProgress) Error(message string) {
	if p.tty {
		fmt.Fprint(p.w, "\r\033[K")
	}
	fmt.Fprintf(p.w, "error: %s\n", message)
}

// confirm asks a yes/no question on stderr and reads the answer from stdin.
func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func stdinIsTerminal() bool {
	return api.IsTerminal(os.Stdin)
}
