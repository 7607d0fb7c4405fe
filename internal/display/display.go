// Package display provides the GUI hosts that own the now-playing widgets:
// a Bubble Tea terminal host and a headless host for non-interactive runs.
package display

import (
	"github.com/genricoloni/nowplaying/internal/config"
	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/zap"
)

// New returns the host selected by cfg.Display.
func New(logger *zap.Logger, cfg config.Config) domain.Display {
	if cfg.Display == config.DisplayHeadless {
		return NewHeadless(logger)
	}
	return NewTerminal(logger, cfg.ArtSize())
}
