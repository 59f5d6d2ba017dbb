package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// lineReader reads answers to interactive prompts.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) readLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ask prints label on stderr and reads one line.
func (a *App) ask(label string) (string, error) {
	fmt.Fprint(a.deps.Stderr, label+": ")
	line, err := a.in.readLine()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

// askPassword prints label and reads a password without echo when possible.
func (a *App) askPassword(label string) (string, error) {
	fmt.Fprint(a.deps.Stderr, label+": ")
	pw, err := a.deps.ReadPassword()
	fmt.Fprintln(a.deps.Stderr)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return pw, nil
}
