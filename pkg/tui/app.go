// Package tui is the live view shown while workflows run on a terminal.
//
// File organization:
// - app.go: Entry point (Run function)
// - model.go: Model struct and message types
// - update.go: Event handling and state updates
// - view.go: Rendering
// - keys.go: Keyboard input handling
// - styles.go: Visual styling
// - highlight.go: JSON syntax highlighting
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackcoderx/capter/pkg/workflow"
)

// Run shows the live view while run executes. The view lives on the
// alternate screen, so what it reported is returned for the caller to print
// once it is gone.
func Run(ctx context.Context, defs []*workflow.Definition, run RunFunc, opts ...tea.ProgramOption) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(defs, cancel)
	prog := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)

	ref := &programRef{}
	ref.Set(prog)

	done := runAsync(ctx, run, ref)

	final, progErr := prog.Run()
	ref.Set(nil)

	// Quitting early cancels the run; wait for it so results are complete.
	cancel()
	runErr := <-done

	if progErr != nil {
		return m.Transcript(), progErr
	}
	if fm, ok := final.(Model); ok {
		return fm.Transcript(), runErr
	}
	return m.Transcript(), runErr
}

// runAsync runs the workflows in a goroutine and forwards their events to
// the program in order.
func runAsync(ctx context.Context, run RunFunc, ref *programRef) <-chan error {
	done := make(chan error, 1)
	go func() {
		observer := workflow.ObserverFunc(func(e workflow.Event) {
			ref.Send(eventMsg{event: e})
		})

		err := run(ctx, observer)
		ref.Send(runDoneMsg{err: err})
		done <- err
	}()
	return done
}
