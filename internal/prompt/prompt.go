// Package prompt reads answers from the console.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrCanceled is returned when the user declines to choose an option.
var ErrCanceled = errors.New("selection canceled")

// Console asks questions on out and reads answers from in.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// New creates a Console. When in is a terminal, secrets are read without echo.
func New(in io.Reader, out io.Writer) *Console {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Console{in: bufio.NewReader(in), out: out, fd: fd}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask prints label and returns the answer, or def when the answer is blank.
func (c *Console) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(c.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(c.out, "%s: ", label)
	}

	answer, err := c.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question. A blank answer returns def.
func (c *Console) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}

	for {
		fmt.Fprintf(c.out, "%s [%s]: ", question, hint)
		answer, err := c.readLine()
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(c.out, "Please answer y or n.")
	}
}

// Secret reads a value without echoing it when the input is a terminal.
func (c *Console) Secret(label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)

	if c.fd < 0 {
		return c.readLine()
	}

	b, err := term.ReadPassword(c.fd)
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Choose prints a numbered list and returns the index of the chosen option.
// Answering 0 or leaving the answer blank returns ErrCanceled.
func (c *Console) Choose(title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrCanceled
	}

	fmt.Fprintln(c.out, title)
	for i, opt := range options {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, opt)
	}

	for {
		fmt.Fprintf(c.out, "Choose 1-%d (0 to cancel): ", len(options))
		answer, err := c.readLine()
		if err != nil {
			return -1, err
		}
		if answer == "" || answer == "0" {
			return -1, ErrCanceled
		}

		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(c.out, "%q is not a valid choice.\n", answer)
	}
}
