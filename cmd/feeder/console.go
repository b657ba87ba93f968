package main

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// consoleSink prints status lines to the console. On a real terminal a
// replace-line update rewrites the current line in place; when output is
// piped, every line is appended so logs stay complete.
type consoleSink struct {
	mu          sync.Mutex
	out         *os.File
	isTerminal  bool
	lastReplace bool
}

func newConsoleSink(out *os.File) *consoleSink {
	return &consoleSink{
		out:        out,
		isTerminal: term.IsTerminal(int(out.Fd())),
	}
}

func (c *consoleSink) Log(msg string, replace bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if replace && c.isTerminal {
		// \r returns to column 0, \033[K clears the stale remainder.
		fmt.Fprintf(c.out, "\r\033[K%s", msg)
		c.lastReplace = true
		return
	}

	if c.lastReplace {
		// Finish the in-place status line before appending.
		fmt.Fprintln(c.out)
		c.lastReplace = false
	}
	fmt.Fprintln(c.out, msg)
}
