package monitor

import (
	"strings"

	"github.com/genricoloni/nowplaying/internal/domain"
	"github.com/godbus/dbus/v5"
)

func parseStatus(s string) domain.PlayerStatus {
	switch s {
	case "Playing":
		return domain.StatusPlaying
	case "Paused":
		return domain.StatusPaused
	default:
		return domain.StatusStopped
	}
}

// parseMetadata extracts the fields that identify a track from an MPRIS
// metadata map. Values of unexpected types are ignored.
func parseMetadata(player string, metadata map[string]dbus.Variant, status string) domain.MediaMetadata {
	meta := domain.MediaMetadata{
		Player: player,
		Status: parseStatus(status),
	}

	if v, ok := metadata["xesam:title"]; ok {
		if title, ok := v.Value().(string); ok {
			meta.Title = strings.TrimSpace(title)
		}
	}

	// xesam:artist is a list; some players send a plain string.
	if v, ok := metadata["xesam:artist"]; ok {
		switch artists := v.Value().(type) {
		case []string:
			meta.Artist = strings.Join(artists, ", ")
		case string:
			meta.Artist = artists
		}
	}

	return meta
}

func isPlayerName(name string) bool {
	return strings.HasPrefix(name, mprisPrefix) && len(name) > len(mprisPrefix)
}
