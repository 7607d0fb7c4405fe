package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/nowplaying/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	_eventBuffer     = 10
	_signalBuffer    = 10
	_dropLogInterval = 5 * time.Second
)

// MprisMonitor reports MPRIS player changes from the session bus.
type MprisMonitor struct {
	logger *zap.Logger
	dial   func() (DBusClient, error)
	events chan domain.MediaMetadata
	wg     sync.WaitGroup

	mu       sync.RWMutex
	running  bool
	closed   bool
	cancel   context.CancelFunc
	conn     DBusClient
	players  map[string]string // unique bus name -> well-known name
	last     map[string]domain.MediaMetadata
	lastDrop time.Time
}

func NewMprisMonitor(logger *zap.Logger) *MprisMonitor {
	return &MprisMonitor{
		logger:  logger,
		dial:    dialSessionBus,
		events:  make(chan domain.MediaMetadata, _eventBuffer),
		players: make(map[string]string),
		last:    make(map[string]domain.MediaMetadata),
	}
}

// Start connects to the session bus and blocks until ctx is cancelled or
// Stop is called.
func (m *MprisMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	conn, err := m.connect(runCtx)
	if err != nil {
		cancel()
		m.mu.Lock()
		m.running = false
		m.cancel = nil
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return runCtx.Err()
	}
	m.wg.Add(2)
	m.mu.Unlock()

	func() {
		defer m.wg.Done()
		if err := m.detectExistingPlayers(); err != nil {
			m.logger.Warn("Failed to detect existing players", zap.Error(err))
		}
	}()
	go m.monitorSignals(runCtx, conn)

	m.logger.Info("MPRIS monitor started")
	<-runCtx.Done()
	m.logger.Info("MPRIS monitor stopped")
	return runCtx.Err()
}

// connect dials the bus and installs the match rules. The connection is
// closed again on any failure.
func (m *MprisMonitor) connect(ctx context.Context) (DBusClient, error) {
	conn, err := m.dial()
	if err != nil {
		return nil, fmt.Errorf("session bus connection failed: %w", err)
	}

	fail := func(err error) (DBusClient, error) {
		if cerr := conn.Close(); cerr != nil {
			m.logger.Warn("Failed to close D-Bus connection", zap.Error(cerr))
		}
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(mprisObjectPath),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fail(fmt.Errorf("failed to add match signal: %w", err))
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
	); err != nil {
		m.logger.Warn("Player tracking disabled, NameOwnerChanged match failed", zap.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return fail(context.Canceled)
	}
	m.conn = conn
	return conn, nil
}

// Stop cancels monitoring, waits for the signal loop, and closes the
// events channel.
func (m *MprisMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	waited := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(waited)
	}()

	var err error
	select {
	case <-waited:
	case <-ctx.Done():
		err = fmt.Errorf("wait for signal loop: %w", ctx.Err())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	if m.conn != nil {
		if cerr := m.conn.Close(); cerr != nil {
			m.logger.Warn("Failed to close D-Bus connection", zap.Error(cerr))
		}
	}
	return err
}

func (m *MprisMonitor) Events() <-chan domain.MediaMetadata {
	return m.events
}

func (m *MprisMonitor) detectExistingPlayers() error {
	names, err := m.conn.ListNames()
	if err != nil {
		return fmt.Errorf("failed to list bus names: %w", err)
	}

	count := 0
	for _, name := range names {
		if !isPlayerName(name) {
			continue
		}
		count++

		if unique, err := m.conn.GetNameOwner(name); err == nil {
			m.trackPlayer(unique, name)
		}
		if err := m.fetchPlayerMetadata(name); err != nil {
			m.logger.Warn("Failed to fetch initial metadata", zap.String("player", name), zap.Error(err))
		}
	}

	m.logger.Info("Player detection complete", zap.Int("count", count))
	return nil
}

// fetchPlayerMetadata reads the current metadata and status of a player
// and emits them. A player without a metadata map is skipped.
func (m *MprisMonitor) fetchPlayerMetadata(player string) error {
	variant, err := m.conn.GetProperty(player, mprisObjectPath, propMetadata)
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}
	metadata, ok := variant.Value().(map[string]dbus.Variant)
	if !ok {
		m.logger.Debug("Metadata is not a map, skipping", zap.String("player", player))
		return nil
	}

	statusVariant, err := m.conn.GetProperty(player, mprisObjectPath, propPlaybackStatus)
	if err != nil {
		return fmt.Errorf("failed to get playback status: %w", err)
	}
	status, ok := statusVariant.Value().(string)
	if !ok {
		return fmt.Errorf("invalid playback status type %T", statusVariant.Value())
	}

	m.emit(parseMetadata(player, metadata, status))
	return nil
}

func (m *MprisMonitor) monitorSignals(ctx context.Context, conn DBusClient) {
	defer m.wg.Done()

	signals := make(chan *dbus.Signal, _signalBuffer)
	conn.Signal(signals)

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				m.logger.Warn("D-Bus signal channel closed")
				return
			}
			if sig == nil {
				continue
			}
			switch sig.Name {
			case signalNameOwnerChanged:
				m.handleNameOwnerChanged(sig)
			case signalPropertiesChanged:
				m.handleSignal(sig)
			}
		}
	}
}

// handleNameOwnerChanged keeps the unique-to-well-known name map current.
func (m *MprisMonitor) handleNameOwnerChanged(sig *dbus.Signal) {
	if len(sig.Body) < 3 {
		return
	}
	name, ok := sig.Body[0].(string)
	if !ok || !isPlayerName(name) {
		return
	}
	oldOwner, _ := sig.Body[1].(string)
	newOwner, _ := sig.Body[2].(string)

	if oldOwner != "" {
		m.forgetPlayer(oldOwner)
	}
	if newOwner == "" {
		m.logger.Info("MPRIS player removed", zap.String("player", name))
		return
	}

	m.trackPlayer(newOwner, name)
	if oldOwner != "" {
		return
	}

	m.logger.Info("MPRIS player appeared", zap.String("player", name), zap.String("unique", newOwner))
	if err := m.fetchPlayerMetadata(name); err != nil {
		m.logger.Warn("Failed to fetch metadata from new player", zap.String("player", name), zap.Error(err))
	}
}

// handleSignal turns a PropertiesChanged signal on the player interface
// into an event when Metadata or PlaybackStatus changed.
func (m *MprisMonitor) handleSignal(sig *dbus.Signal) {
	if sig.Name != signalPropertiesChanged || len(sig.Body) < 2 {
		return
	}
	if iface, ok := sig.Body[0].(string); !ok || iface != playerInterface {
		return
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	metadataVariant, hasMetadata := changed["Metadata"]
	statusVariant, hasStatus := changed["PlaybackStatus"]
	if !hasMetadata && !hasStatus {
		return
	}

	var (
		metadata map[string]dbus.Variant
		status   string
	)

	if hasMetadata {
		if metadata, ok = metadataVariant.Value().(map[string]dbus.Variant); !ok {
			m.logger.Warn("Invalid metadata type in signal, ignoring", zap.String("sender", sig.Sender))
			return
		}
	} else if v, err := m.conn.GetProperty(sig.Sender, mprisObjectPath, propMetadata); err == nil {
		metadata, _ = v.Value().(map[string]dbus.Variant)
	}

	if hasStatus {
		if status, ok = statusVariant.Value().(string); !ok {
			m.logger.Warn("Invalid playback status type in signal, ignoring", zap.String("sender", sig.Sender))
			return
		}
	} else if v, err := m.conn.GetProperty(sig.Sender, mprisObjectPath, propPlaybackStatus); err == nil {
		status, _ = v.Value().(string)
	}

	m.emit(parseMetadata(m.playerName(sig.Sender), metadata, status))
}

// emit sends meta without blocking. Repeats of the last event from the
// same player are dropped, as is everything after Stop.
func (m *MprisMonitor) emit(meta domain.MediaMetadata) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	if prev, ok := m.last[meta.Player]; ok && prev == meta {
		m.logger.Debug("Player state unchanged", zap.String("player", meta.Player))
		return false
	}

	select {
	case m.events <- meta:
		m.last[meta.Player] = meta
		m.logger.Info("Media change detected",
			zap.String("player", meta.Player),
			zap.String("title", meta.Title),
			zap.String("artist", meta.Artist),
			zap.String("status", string(meta.Status)),
		)
		return true
	default:
		now := time.Now()
		if now.Sub(m.lastDrop) >= _dropLogInterval {
			m.logger.Warn("Events channel full, dropping player change")
			m.lastDrop = now
		}
		return false
	}
}

func (m *MprisMonitor) trackPlayer(unique, name string) {
	m.mu.Lock()
	m.players[unique] = name
	m.mu.Unlock()
}

func (m *MprisMonitor) forgetPlayer(unique string) {
	m.mu.Lock()
	if name, ok := m.players[unique]; ok {
		delete(m.players, unique)
		delete(m.last, name)
	}
	m.mu.Unlock()
}

// playerName maps a unique bus name to the player's well-known name,
// falling back to the unique name.
func (m *MprisMonitor) playerName(unique string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if name, ok := m.players[unique]; ok {
		return name
	}
	return unique
}
