package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/genricoloni/nowplaying/internal/config"
	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/zap"
)

const (
	currentTrackPath = "/current-track"
	maxMetadataSize  = 64 * 1024
	errorBodyExcerpt = 120
)

// TrackClient talks to the now-playing metadata server.
type TrackClient struct {
	logger  *zap.Logger
	baseURL *url.URL
	userID  string
	http    *http.Client
}

// Ensure TrackClient implements domain.TrackSource at compile time.
var _ domain.TrackSource = (*TrackClient)(nil)

// NewTrackClient builds a client for cfg.ServerURL and cfg.UserID.
func NewTrackClient(logger *zap.Logger, cfg config.Config) (*TrackClient, error) {
	base, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", cfg.ServerURL, err)
	}
	base.RawQuery = ""
	base.Fragment = ""
	return &TrackClient{
		logger:  logger,
		baseURL: base,
		userID:  cfg.UserID,
		http: &http.Client{
			Timeout: _timeout,
		},
	}, nil
}

// TrackURL returns {base}/current-track?userId={user}.
func (c *TrackClient) TrackURL() string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + currentTrackPath
	u.RawQuery = url.Values{"userId": {c.userID}}.Encode()
	return u.String()
}

// FetchTrackInfo retrieves the current track record.
func (c *TrackClient) FetchTrackInfo(ctx context.Context) (domain.TrackInfo, error) {
	reqURL := c.TrackURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.TrackInfo{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", _userAgent)

	c.logger.Debug("Requesting track metadata", zap.String("url", reqURL))

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.TrackInfo{}, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
	if err != nil {
		return domain.TrackInfo{}, fmt.Errorf("%w: read body: %w", domain.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("Metadata server returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", excerpt(body)))
		return domain.TrackInfo{}, &domain.ServerError{StatusCode: resp.StatusCode}
	}

	info, err := decodeTrackInfo(body)
	if err != nil {
		return domain.TrackInfo{}, err
	}

	c.logger.Debug("Track metadata received",
		zap.String("track", info.Track),
		zap.String("artist", info.Artist),
		zap.String("artUrl", info.ArtURL))
	return info, nil
}

// decodeTrackInfo requires track and artist; art_url may be absent or null.
func decodeTrackInfo(body []byte) (domain.TrackInfo, error) {
	var raw struct {
		Track  *string `json:"track"`
		Artist *string `json:"artist"`
		ArtURL *string `json:"art_url"`
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.TrackInfo{}, fmt.Errorf("%w: empty body", domain.ErrParse)
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.TrackInfo{}, fmt.Errorf("%w: decode response: %w", domain.ErrParse, err)
	}
	if raw.Track == nil {
		return domain.TrackInfo{}, fmt.Errorf("%w: missing field %q", domain.ErrParse, "track")
	}
	if raw.Artist == nil {
		return domain.TrackInfo{}, fmt.Errorf("%w: missing field %q", domain.ErrParse, "artist")
	}

	info := domain.TrackInfo{Track: *raw.Track, Artist: *raw.Artist}
	if raw.ArtURL != nil {
		info.ArtURL = strings.TrimSpace(*raw.ArtURL)
	}
	return info, nil
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= errorBodyExcerpt {
		return s
	}
	cut := errorBodyExcerpt
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
