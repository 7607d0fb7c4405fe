package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/nowplaying/internal/config"
	"github.com/genricoloni/nowplaying/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Engine is the track poller. It runs every poll cycle on a single loop
// goroutine, so cycles never overlap and a render is never interleaved
// with another.
type Engine struct {
	logger    *zap.Logger
	source    domain.TrackSource
	fetcher   domain.Fetcher
	processor domain.ImageProcessor
	display   domain.Display
	monitor   domain.Monitor
	period    time.Duration
	debounce  time.Duration

	refresh chan struct{}

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	interval *Interval
}

// NewEngine creates a new poller
func NewEngine(
	logger *zap.Logger,
	cfg config.Config,
	source domain.TrackSource,
	fetch domain.Fetcher,
	proc domain.ImageProcessor,
	disp domain.Display,
	mon domain.Monitor,
) *Engine {
	return &Engine{
		logger:    logger,
		source:    source,
		fetcher:   fetch,
		processor: proc,
		display:   disp,
		monitor:   mon,
		period:    cfg.PollInterval,
		debounce:  defaultDebounce,
		refresh:   make(chan struct{}, 1),
	}
}

// Start launches the poll loop in a goroutine and returns immediately.
// The loop performs the initial poll before waiting for triggers.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		return nil
	}
	if e.period <= 0 {
		return fmt.Errorf("invalid poll interval %s", e.period)
	}

	e.logger.Info("Poller starting", zap.Duration("interval", e.period))

	// The loop outlives the start context, which fx cancels once startup ends.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.done = make(chan struct{})
	e.interval = NewInterval(e.period)

	go e.runLoop(loopCtx, e.interval, e.done)
	return nil
}

// Stop cancels the loop, releases the interval and waits for an in-flight
// cycle to finish or ctx to expire.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel = nil
	e.mu.Unlock()

	if cancel == nil {
		return nil
	}

	e.logger.Info("Poller stopping...")
	cancel()

	select {
	case <-done:
		e.logger.Info("Poller stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for poll loop: %w", ctx.Err())
	}
}

// Refresh requests a manual poll. Requests made while a cycle is running
// are coalesced into one follow-up cycle.
func (e *Engine) Refresh() {
	select {
	case e.refresh <- struct{}{}:
	default:
		e.logger.Debug("Refresh already pending")
	}
}

func (e *Engine) runLoop(ctx context.Context, interval *Interval, done chan struct{}) {
	defer close(done)
	defer interval.Stop()

	_ = e.PollCycle(ctx, domain.TriggerInitial)

	hostEvents := e.display.Events()
	var mediaEvents <-chan domain.MediaMetadata
	if e.monitor != nil {
		mediaEvents = e.monitor.Events()
	}

	// Media changes arrive in bursts when skipping tracks; wait for silence.
	debounce := time.NewTimer(e.debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("Poll loop stopped")
			return

		case <-interval.C():
			_ = e.PollCycle(ctx, domain.TriggerTimer)

		case <-e.refresh:
			_ = e.PollCycle(ctx, domain.TriggerManual)

		case ev, ok := <-hostEvents:
			if !ok {
				e.logger.Debug("Host event channel closed")
				hostEvents = nil
				continue
			}
			e.handleHostEvent(ctx, ev)

		case meta, ok := <-mediaEvents:
			if !ok {
				e.logger.Debug("Media event channel closed")
				mediaEvents = nil
				continue
			}
			e.logger.Debug("Media change received, debouncing...",
				zap.String("player", meta.Player),
				zap.String("title", meta.Title),
				zap.String("status", string(meta.Status)))
			debounce.Reset(e.debounce)

		case <-debounce.C:
			_ = e.PollCycle(ctx, domain.TriggerMedia)
		}
	}
}

func (e *Engine) handleHostEvent(ctx context.Context, ev domain.HostEvent) {
	switch {
	case ev.IsRefreshRequest():
		e.logger.Debug("Enter pressed, requesting manual update")
		e.Refresh()
	case ev.Kind == domain.EventFocused:
		e.logger.Debug("Display focused")
	case ev.Kind == domain.EventBlurred:
		e.logger.Debug("Display lost focus")
	}
}

// PollCycle fetches the current track, fetches its art when there is an
// art URL, and renders the result. Failures never escape as a crash: a
// failed track fetch renders the fallback view, a failed art fetch renders
// the labels and leaves the image alone. The returned error only reports
// what degraded the cycle.
func (e *Engine) PollCycle(ctx context.Context, trigger domain.Trigger) error {
	start := time.Now()
	log := e.logger.With(
		zap.String("cycle", uuid.NewString()),
		zap.String("trigger", string(trigger)),
	)
	log.Debug("Starting track info update")

	view, err := e.buildView(ctx, log)
	if ctx.Err() != nil {
		// Shutting down; leave the screen as it is.
		return ctx.Err()
	}

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrImageFetch):
		log.Warn("Album art unavailable, updating labels only", zap.Error(err))
	default:
		log.Error("Track update failed, showing fallback",
			zap.String("kind", domain.Kind(err)),
			zap.Error(err))
		view = domain.FallbackView()
	}

	if rerr := e.display.Render(ctx, view); rerr != nil {
		log.Error("Render failed", zap.Error(rerr))
		err = multierr.Append(err, fmt.Errorf("render: %w", rerr))
	}

	log.Debug("UI update complete",
		zap.String("track", view.Track),
		zap.String("artist", view.Artist),
		zap.Int("artBytes", len(view.Art)),
		zap.Duration("took", time.Since(start)))
	return err
}

func (e *Engine) buildView(ctx context.Context, log *zap.Logger) (domain.View, error) {
	info, err := e.source.FetchTrackInfo(ctx)
	if err != nil {
		return domain.FallbackView(), fmt.Errorf("fetch track info: %w", err)
	}

	if !info.HasArt() {
		log.Debug("No art URL, skipping album art", zap.String("track", info.Track))
		return domain.ViewFor(info, nil), nil
	}

	art, err := e.fetcher.Fetch(ctx, info.ArtURL)
	if err != nil {
		return domain.ViewFor(info, nil), fmt.Errorf("fetch album art: %w", err)
	}

	processed, err := e.processor.Process(ctx, art)
	if err != nil {
		log.Warn("Album art processing failed, using original bytes",
			zap.Int("bytes", len(art)),
			zap.Error(err))
		processed = art
	}

	return domain.ViewFor(info, processed), nil
}
