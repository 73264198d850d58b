package builder

import (
	"fmt"
	"io"
)

// Listener receives the build log output of the gate.
type Listener interface {
	// Log writes one line to the build log.
	Log(line string)
	// Error reports a build error formatted with a single argument and
	// returns a writer for further detail.
	Error(format string, arg string) io.Writer
	// RawOutput is the underlying build log stream.
	RawOutput() io.Writer
}

// StreamListener writes build log lines to an io.Writer.
type StreamListener struct {
	out io.Writer
}

// NewStreamListener creates a listener writing to out.
func NewStreamListener(out io.Writer) *StreamListener {
	return &StreamListener{out: out}
}

func (l *StreamListener) Log(line string) {
	fmt.Fprintln(l.out, line)
}

func (l *StreamListener) Error(format string, arg string) io.Writer {
	fmt.Fprintf(l.out, "ERROR: "+format+"\n", arg)
	return l.out
}

func (l *StreamListener) RawOutput() io.Writer {
	return l.out
}
