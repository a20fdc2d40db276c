package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/githubtower/ghtower/internal/templates"
)

// ErrNotInteractive is returned when input is required but stdin is not
// a terminal.
var ErrNotInteractive = errors.New("input required but stdin is not a terminal")

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Prompter asks the operator yes/no questions. It satisfies
// syncer.Confirmer.
type Prompter struct {
	// AssumeYes answers every question with yes without asking.
	AssumeYes bool
	// Interactive enables huh prompts. When false every question is
	// answered with no.
	Interactive bool
	// Out receives the echo of non-interactive answers.
	Out io.Writer
}

// NewPrompter returns a Prompter for the current terminal.
func NewPrompter(assumeYes bool) *Prompter {
	return &Prompter{AssumeYes: assumeYes, Interactive: IsInteractive(), Out: os.Stdout}
}

func (p *Prompter) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

// Confirm asks prompt and reports the answer.
func (p *Prompter) Confirm(prompt string) bool {
	if p.AssumeYes {
		fmt.Fprintf(p.out(), "%s %s %s\n", RenderAccent("?"), prompt, RenderDim("yes (--yes)"))
		return true
	}
	if !p.Interactive {
		fmt.Fprintf(p.out(), "%s %s %s\n", RenderAccent("?"), prompt, RenderDim("no (not a terminal, pass --yes)"))
		return false
	}

	var ok bool
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false
	}
	return ok
}

// Input asks for a line of text. An empty answer returns def.
func (p *Prompter) Input(title, def string) (string, error) {
	if !p.Interactive {
		if def != "" {
			return def, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotInteractive, title)
	}

	var value string
	err := huh.NewInput().
		Title(title).
		Placeholder(def).
		Value(&value).
		Run()
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		value = def
	}
	return value, nil
}

// SelectTemplate asks the operator to pick a template and returns its key.
// Without a terminal the default template is chosen.
func (p *Prompter) SelectTemplate() (string, error) {
	if !p.Interactive {
		return templates.DefaultKey, nil
	}

	all := templates.All()
	options := make([]huh.Option[string], len(all))
	for i, t := range all {
		options[i] = huh.NewOption(fmt.Sprintf("%s  %s", t.Name, RenderDim(t.Description)), t.Key)
	}

	key := templates.DefaultKey
	err := huh.NewSelect[string]().
		Title("Select a project template").
		Options(options...).
		Value(&key).
		Run()
	if err != nil {
		return "", err
	}
	return key, nil
}
