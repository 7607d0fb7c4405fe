//go:build !linux

package monitor

import (
	"context"
	"errors"

	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/zap"
)

// ErrUnsupported is returned by Start on platforms without a session bus.
var ErrUnsupported = errors.New("MPRIS monitoring is only supported on Linux")

// MprisMonitor is unavailable on this platform.
type MprisMonitor struct {
	logger *zap.Logger
}

func NewMprisMonitor(logger *zap.Logger) *MprisMonitor {
	return &MprisMonitor{logger: logger}
}

func (m *MprisMonitor) Start(context.Context) error         { return ErrUnsupported }
func (m *MprisMonitor) Stop(context.Context) error          { return nil }
func (m *MprisMonitor) Events() <-chan domain.MediaMetadata { return nil }
