package output

import (
	"fmt"
	"io"
	"os"
)

// Messenger prints status lines. Notices go to out, warnings to errOut.
// Quiet suppresses everything but warnings.
type Messenger struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool
}

// NewMessenger returns a messenger over the given writers.
func NewMessenger(out, errOut io.Writer, quiet bool) *Messenger {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Messenger{out: out, errOut: errOut, quiet: quiet}
}

// Info prints an informational line.
func (m *Messenger) Info(format string, args ...any) {
	m.print(m.out, "ℹ️  ", format, args...)
}

// Step prints an in-progress line, e.g. "Encrypting amount...".
func (m *Messenger) Step(format string, args ...any) {
	m.print(m.out, "⏳ ", format, args...)
}

// Success prints a completion line.
func (m *Messenger) Success(format string, args ...any) {
	m.print(m.out, "✅ ", format, args...)
}

// Warn prints to errOut even when quiet.
func (m *Messenger) Warn(format string, args ...any) {
	_, _ = fmt.Fprintln(m.errOut, "⚠️  "+fmt.Sprintf(format, args...))
}

func (m *Messenger) print(w io.Writer, prefix, format string, args ...any) {
	if m.quiet {
		return
	}
	_, _ = fmt.Fprintln(w, prefix+fmt.Sprintf(format, args...))
}
