package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// OverwritePolicy decides whether an existing output file may be replaced.
type OverwritePolicy interface {
	ShouldOverwrite(path string) (bool, error)
}

type always struct{}

func (always) ShouldOverwrite(string) (bool, error) { return true, nil }

type never struct{}

func (never) ShouldOverwrite(string) (bool, error) { return false, nil }

var (
	Always OverwritePolicy = always{}
	Never  OverwritePolicy = never{}
)

// Prompt asks before replacing a file. On a terminal it shows a confirm form,
// otherwise it reads yes/no answers line by line from In.
type Prompt struct {
	In  io.Reader
	Out io.Writer

	// Interactive forces the form on or off; nil detects a terminal on In.
	Interactive *bool

	lines *bufio.Reader
}

func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{In: in, Out: out}
}

func (p *Prompt) ShouldOverwrite(path string) (bool, error) {
	if p.interactive() {
		return p.confirm(path)
	}
	return p.ask(path)
}

func (p *Prompt) interactive() bool {
	if p.Interactive != nil {
		return *p.Interactive
	}
	f, ok := p.In.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Prompt) confirm(path string) (bool, error) {
	ok := true
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("The file '%s' already exists.", path)).
			Description("Do you want to overwrite it?").
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).WithInput(p.In).WithOutput(p.Out)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// ask repeats the question until it gets yes, y, no, n or an empty answer,
// which counts as yes. End of input counts as no.
func (p *Prompt) ask(path string) (bool, error) {
	if p.lines == nil {
		p.lines = bufio.NewReader(p.In)
	}
	for {
		fmt.Fprintf(p.Out, "The file '%s' already exists. Do you want to overwrite it? (yes/no): ", path)
		line, err := p.lines.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		if err == io.EOF && line == "" {
			fmt.Fprintln(p.Out)
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "yes", "y", "":
			return true, nil
		case "no", "n":
			return false, nil
		}
		fmt.Fprintln(p.Out, "Please answer 'yes' or 'no'")
	}
}

// ParsePolicy maps a configured mode to its policy.
func ParsePolicy(mode string, in io.Reader, out io.Writer) (OverwritePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "prompt":
		return NewPrompt(in, out), nil
	case "always":
		return Always, nil
	case "never":
		return Never, nil
	default:
		return nil, fmt.Errorf("unknown overwrite mode %q (expected prompt, always or never)", mode)
	}
}
