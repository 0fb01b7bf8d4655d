package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// linePrompter asks a yes/no question and reads the answer from a line of input
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
	// assumeYes skips the question
	assumeYes bool
}

func newLinePrompter(in *bufio.Reader, out io.Writer, assumeYes bool) *linePrompter {
	return &linePrompter{in: in, out: out, assumeYes: assumeYes}
}

func (p *linePrompter) Confirm(ctx context.Context, message string) (bool, error) {
	if p.assumeYes {
		return true, nil
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
