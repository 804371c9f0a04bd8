package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// ConsoleSynthesizer renders speech as a styled transcript line. It stands
// in for a real text-to-speech device and doubles as the always-available
// fallback output.
type ConsoleSynthesizer struct {
	// Name is the speaker label, typically the assistant's name.
	Name string

	// W is the output writer, typically os.Stdout.
	W io.Writer
}

func (s *ConsoleSynthesizer) Say(_ context.Context, text string) error {
	label := s.Name
	if label == "" {
		label = "assistant"
	}
	_, err := fmt.Fprintf(s.W, "%s %s\n", assistantStyle.Render(label+":"), text)
	return err
}

// ConsoleListener reads utterances as lines from a reader, typically
// os.Stdin. It lets the assistant be driven from a terminal when no
// recognizer daemon is available.
type ConsoleListener struct {
	lines chan string
}

// NewConsoleListener starts reading lines from r. The reader goroutine
// lives until r is exhausted or closed.
func NewConsoleListener(r io.Reader) *ConsoleListener {
	l := &ConsoleListener{lines: make(chan string)}
	go func() {
		defer close(l.lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			l.lines <- line
		}
	}()
	return l
}

// Listen waits up to timeout for the next line. A closed input or an
// elapsed timeout reports ok=false, mirroring microphone silence.
func (l *ConsoleListener) Listen(ctx context.Context, timeout time.Duration) (string, bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case line, ok := <-l.lines:
		if !ok {
			return "", false
		}
		return line, true
	case <-t.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// EchoUser prints the recognized utterance to the transcript, so console
// sessions read like a dialogue.
func EchoUser(w io.Writer, name, text string) {
	fmt.Fprintf(w, "%s %s\n", userStyle.Render(name+":"), text)
}
