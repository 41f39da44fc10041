package wizard

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Prompter asks questions on a terminal and reads answers line by line.
// It reads from any io.Reader, so tests can script a whole session with a
// strings.Reader.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	label *color.Color
}

// NewPrompter builds a Prompter over the given streams.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:    bufio.NewReader(in),
		out:   out,
		label: color.New(color.FgCyan, color.Bold),
	}
}

// Ask asks until it gets a non-empty answer.
func (p *Prompter) Ask(prompt string) (string, error) {
	for {
		p.label.Fprint(p.out, prompt)
		fmt.Fprint(p.out, ": ")
		answer, err := p.readLine()
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
	}
}

// AskDefault asks once; an empty answer selects the default.
func (p *Prompter) AskDefault(prompt, def string) (string, error) {
	p.label.Fprint(p.out, prompt)
	if def != "" {
		fmt.Fprintf(p.out, " [%s]", def)
	}
	fmt.Fprint(p.out, ": ")
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskInt asks until the answer parses as an integer.
func (p *Prompter) AskInt(prompt string) (int, error) {
	for {
		answer, err := p.Ask(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a number.")
			continue
		}
		return n, nil
	}
}

// Confirm asks a yes/no question; an empty answer selects the default.
func (p *Prompter) Confirm(prompt string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		p.label.Fprint(p.out, prompt)
		fmt.Fprintf(p.out, " [%s]: ", hint)
		answer, err := p.readLine()
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
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Select prints a numbered menu and asks until a valid choice comes back.
// It returns the chosen option's index.
func (p *Prompter) Select(prompt string, options []string) (int, error) {
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}
	for {
		n, err := p.AskInt(prompt)
		if err != nil {
			return 0, err
		}
		if n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "Please choose 1-%d.\n", len(options))
	}
}

// readLine reads one trimmed line. A final line without a newline still
// counts, so piped input does not need a trailing newline.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
