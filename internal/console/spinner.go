package console

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Spinner shows progress on a terminal and does nothing elsewhere.
type Spinner struct {
	spinner *spinner.Spinner
	enabled bool
}

func NewSpinner(message string) *Spinner {
	s := &Spinner{enabled: isatty.IsTerminal(1)}
	if s.enabled {
		s.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.spinner.Suffix = " " + message
		_ = s.spinner.Color("cyan")
	}
	return s
}

func (s *Spinner) Start() {
	if s.enabled {
		s.spinner.Start()
	}
}

func (s *Spinner) Stop() {
	if s.enabled {
		s.spinner.Stop()
	}
}

func (s *Spinner) UpdateMessage(message string) {
	if s.enabled {
		s.spinner.Suffix = " " + message
	}
}

// IsEnabled reports whether stdout is a terminal.
func (s *Spinner) IsEnabled() bool {
	return s.enabled
}
