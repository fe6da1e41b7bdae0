package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// errNoInput is returned when stdin closes before an answer is given
var errNoInput = errors.New("no input")

// prompter asks questions on the command's streams
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		in:  bufio.NewScanner(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
	}
}

// ask prints question and returns the trimmed answer
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s ", question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// confirm reports whether the answer is yes
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question + " (yes/no)")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// askUntil repeats question until parse accepts the answer
func askUntil[T any](p *prompter, question string, attempts int, parse func(string) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for range attempts {
		answer, err := p.ask(question)
		if err != nil {
			return zero, err
		}
		v, err := parse(answer)
		if err == nil {
			return v, nil
		}
		lastErr = err
		fmt.Fprintf(p.out, "  %v\n", err)
	}
	return zero, lastErr
}
