package domain

// TrackInfo is the current-track record returned by the metadata server.
// A fresh value is built from every response; nothing is retained between polls.
type TrackInfo struct {
	// Track is the title of the currently playing track
	Track string `json:"track"`
	// Artist name
	Artist string `json:"artist"`
	// ArtURL is the absolute URL of the album artwork, empty when unavailable
	ArtURL string `json:"art_url,omitempty"`
}

// HasArt reports whether the record points at album artwork.
func (t TrackInfo) HasArt() bool {
	return t.ArtURL != ""
}

// FallbackTrackText is shown in the track label when no track could be loaded.
const FallbackTrackText = "No track playing"

// View is the complete widget state applied by a single render call.
type View struct {
	Track  string
	Artist string
	// Art holds encoded image bytes. Nil leaves the image widget unchanged.
	Art []byte
}

// FallbackView is rendered when a poll cycle fails.
func FallbackView() View {
	return View{Track: FallbackTrackText}
}

// ViewFor builds the view for a successfully fetched track.
func ViewFor(info TrackInfo, art []byte) View {
	return View{Track: info.Track, Artist: info.Artist, Art: art}
}

// Trigger describes why a poll cycle ran
type Trigger string

const (
	TriggerInitial Trigger = "initial"
	TriggerTimer   Trigger = "timer"
	TriggerManual  Trigger = "manual"
	TriggerMedia   Trigger = "media"
)

// HostEventKind identifies the kind of event delivered by the GUI host
type HostEventKind int

const (
	EventKey HostEventKind = iota
	EventFocused
	EventBlurred
)

// Key identifies a key reported by the GUI host
type Key int

const (
	KeyOther Key = iota
	KeyEnter
)

// HostEvent is an input or focus event dispatched by the GUI host.
type HostEvent struct {
	Kind HostEventKind
	Key  Key
}

// IsRefreshRequest reports whether the event asks for a manual refresh.
func (e HostEvent) IsRefreshRequest() bool {
	return e.Kind == EventKey && e.Key == KeyEnter
}

// PlayerStatus represents the current state of a local media player
type PlayerStatus string

const (
	// StatusPlaying indicates the media is currently playing
	StatusPlaying PlayerStatus = "Playing"
	// StatusPaused indicates the media is paused
	StatusPaused PlayerStatus = "Paused"
	// StatusStopped indicates the media is stopped
	StatusStopped PlayerStatus = "Stopped"
)

// MediaMetadata is a change notification from a local media player.
// It only serves as a refresh trigger; the remote server stays the source of truth.
type MediaMetadata struct {
	Player string
	Title  string
	Artist string
	Status PlayerStatus
}

// ArtSize holds the dimensions of the album art widget
type ArtSize struct {
	Width  int
	Height int
}
