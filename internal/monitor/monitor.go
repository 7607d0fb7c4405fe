// Package monitor watches local media players over the MPRIS D-Bus
// interface. Player changes are used as an extra refresh trigger; the
// now-playing server stays the source of truth.
package monitor

import (
	"context"

	"github.com/genricoloni/nowplaying/internal/config"
	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/zap"
)

// NewMonitor returns the MPRIS monitor when the trigger is enabled and a
// Disabled monitor otherwise.
func NewMonitor(logger *zap.Logger, cfg config.Config) domain.Monitor {
	if !cfg.MPRISTrigger {
		logger.Debug("MPRIS trigger disabled")
		return Disabled{}
	}
	return NewMprisMonitor(logger)
}

// Disabled never reports player changes.
type Disabled struct{}

// Start returns immediately.
func (Disabled) Start(context.Context) error { return nil }
func (Disabled) Stop(context.Context) error  { return nil }

// Events returns a nil channel, which never delivers.
func (Disabled) Events() <-chan domain.MediaMetadata { return nil }
