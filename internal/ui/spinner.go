package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line on a terminal while work runs. On any
// other writer it prints the message once.
type Spinner struct {
	w       io.Writer
	message string
	animate bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	animate := false
	if f, ok := w.(*os.File); ok {
		animate = isatty.IsTerminal(f.Fd())
	}
	return &Spinner{w: w, message: message, animate: animate, done: make(chan struct{})}
}

// Start begins the animation.
func (s *Spinner) Start() {
	if !s.animate {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.done:
				fmt.Fprint(s.w, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(s.w, "\r%s %s", Bold.Render(spinnerFrames[i%len(spinnerFrames)]), s.message)
			}
		}
	}()
}

// Stop ends the animation and clears the line. Stop must be called once,
// after Start.
func (s *Spinner) Stop() {
	if !s.animate {
		return
	}
	close(s.done)
	s.wg.Wait()
}
