package domain

import "context"

//go:generate mockgen -destination=mocks/domain_mock.go -package=mocks github.com/genricoloni/nowplaying/internal/domain TrackSource,Fetcher,ImageProcessor,Display

// TrackSource retrieves the current track record from the metadata server
type TrackSource interface {
	// FetchTrackInfo returns the record for the configured user.
	// Errors match ErrNetwork, ErrServer or ErrParse.
	FetchTrackInfo(ctx context.Context) (TrackInfo, error)
}

// Fetcher defines the interface for retrieving album artwork
type Fetcher interface {
	// Fetch downloads image data from an absolute URL.
	// Errors match ErrImageFetch.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageProcessor defines the interface for in-memory image processing
// This is OS-agnostic and works purely with byte streams
type ImageProcessor interface {
	// Process fits image data to the art widget and re-encodes it
	Process(ctx context.Context, imageData []byte) ([]byte, error)
}

// Display is the GUI host contract. The host owns the screen and the
// widgets; the poller only ever touches them through Render.
type Display interface {
	// Start brings the host up. It must not block.
	Start(ctx context.Context) error

	// Stop tears the host down and releases its widgets.
	Stop(ctx context.Context) error

	// Render applies every field of v together.
	Render(ctx context.Context, v View) error

	// Events returns the host's input/focus event channel.
	Events() <-chan HostEvent

	// Done is closed when the host exits on its own (e.g. the user quit).
	Done() <-chan struct{}
}

// Monitor defines the interface for monitoring local media playback events
type Monitor interface {
	// Start begins monitoring for media events
	// It should block until context is cancelled or an error occurs
	Start(ctx context.Context) error

	// Stop gracefully stops the monitor
	Stop(ctx context.Context) error

	// Events returns a read-only channel that emits MediaMetadata
	// when media playback state changes
	Events() <-chan MediaMetadata
}
