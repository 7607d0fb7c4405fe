package display

import (
	"context"
	"sync"

	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/zap"
)

// Headless is a GUI host without a screen. It keeps the last applied view
// and logs every render. It never closes Done on its own.
type Headless struct {
	logger *zap.Logger
	events chan domain.HostEvent
	done   chan struct{}

	mu      sync.RWMutex
	view    domain.View
	renders int
}

func NewHeadless(logger *zap.Logger) *Headless {
	return &Headless{
		logger: logger,
		events: make(chan domain.HostEvent, _eventBuffer),
		done:   make(chan struct{}),
	}
}

func (h *Headless) Start(context.Context) error {
	h.logger.Info("Headless display started")
	return nil
}

func (h *Headless) Stop(context.Context) error {
	h.logger.Info("Headless display stopped")
	return nil
}

func (h *Headless) Render(ctx context.Context, v domain.View) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	h.view.Track = v.Track
	h.view.Artist = v.Artist
	if v.Art != nil {
		h.view.Art = append([]byte(nil), v.Art...)
	}
	h.renders++
	h.mu.Unlock()

	h.logger.Info("Now playing",
		zap.String("track", v.Track),
		zap.String("artist", v.Artist),
		zap.Int("art_bytes", len(v.Art)),
	)
	return nil
}

// Current returns the applied view and the number of renders so far.
func (h *Headless) Current() (domain.View, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.view, h.renders
}

func (h *Headless) Events() <-chan domain.HostEvent { return h.events }
func (h *Headless) Done() <-chan struct{}           { return h.done }
