package display

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/zap"
)

// ErrHostClosed is returned by Render once the host has exited.
var ErrHostClosed = errors.New("display host closed")

const _eventBuffer = 8

// Terminal is a GUI host that runs a Bubble Tea program on the terminal.
// Quitting the program closes Done.
type Terminal struct {
	logger *zap.Logger
	size   domain.ArtSize
	opts   []tea.ProgramOption

	events chan domain.HostEvent
	done   chan struct{}

	mu      sync.Mutex
	program *tea.Program
	runErr  error
}

// NewTerminal creates a terminal host. Extra program options are appended
// to the defaults (alternate screen and focus reporting).
func NewTerminal(logger *zap.Logger, size domain.ArtSize, opts ...tea.ProgramOption) *Terminal {
	return &Terminal{
		logger: logger,
		size:   size,
		opts:   opts,
		events: make(chan domain.HostEvent, _eventBuffer),
		done:   make(chan struct{}),
	}
}

// Start launches the program in its own goroutine.
func (t *Terminal) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithReportFocus()}, t.opts...)
	t.program = tea.NewProgram(newModel(t.logger, t.size, t.emit), opts...)

	go func() {
		defer close(t.done)
		if _, err := t.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
			t.logger.Error("Terminal display exited with error", zap.Error(err))
			t.mu.Lock()
			t.runErr = err
			t.mu.Unlock()
		}
		t.logger.Info("Terminal display closed")
	}()

	t.logger.Info("Terminal display started",
		zap.Int("art_width", t.size.Width),
		zap.Int("art_height", t.size.Height),
	)
	return nil
}

// Stop asks the program to quit and waits for it to exit. If ctx expires
// first the program is killed.
func (t *Terminal) Stop(ctx context.Context) error {
	t.mu.Lock()
	p := t.program
	t.mu.Unlock()
	if p == nil {
		return nil
	}

	p.Quit()
	select {
	case <-t.done:
	case <-ctx.Done():
		p.Kill()
		<-t.done
		return fmt.Errorf("wait for terminal display: %w", ctx.Err())
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runErr
}

// Render delivers the view to the program as one message.
func (t *Terminal) Render(ctx context.Context, v domain.View) error {
	t.mu.Lock()
	p := t.program
	t.mu.Unlock()
	if p == nil {
		return ErrHostClosed
	}

	select {
	case <-t.done:
		return ErrHostClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	p.Send(renderMsg(v))
	return nil
}

func (t *Terminal) Events() <-chan domain.HostEvent { return t.events }
func (t *Terminal) Done() <-chan struct{}           { return t.done }

// emit forwards a host event without blocking the UI goroutine.
func (t *Terminal) emit(ev domain.HostEvent) {
	select {
	case t.events <- ev:
	default:
		t.logger.Debug("Host event dropped, consumer busy", zap.Int("kind", int(ev.Kind)))
	}
}
