package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/genricoloni/nowplaying/internal/config"
	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, serverURL, userID string) *TrackClient {
	t.Helper()
	c, err := NewTrackClient(zap.NewNop(), config.Config{ServerURL: serverURL, UserID: userID})
	if err != nil {
		t.Fatalf("NewTrackClient returned error: %v", err)
	}
	return c
}

func TestTrackClient_TrackURL(t *testing.T) {
	tests := []struct {
		base   string
		userID string
		want   string
	}{
		{"http://192.168.0.57:3000", "vobot", "http://192.168.0.57:3000/current-track?userId=vobot"},
		{"http://host:3000/api/", "vobot", "http://host:3000/api/current-track?userId=vobot"},
		{"https://host", "a b&c", "https://host/current-track?userId=a+b%26c"},
	}

	for _, tt := range tests {
		c := newTestClient(t, tt.base, tt.userID)
		if got := c.TrackURL(); got != tt.want {
			t.Errorf("TrackURL(%s, %s): expected %s, got %s", tt.base, tt.userID, tt.want, got)
		}
	}
}

func TestTrackClient_FetchTrackInfo(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		body          string
		expected      domain.TrackInfo
		expectedKind  error
		expectedError string
	}{
		{
			name:       "Success - Full Record",
			statusCode: http.StatusOK,
			body:       `{"track":"Song A","artist":"Artist A","art_url":"http://x/a.png"}`,
			expected:   domain.TrackInfo{Track: "Song A", Artist: "Artist A", ArtURL: "http://x/a.png"},
		},
		{
			name:       "Success - Empty Art URL",
			statusCode: http.StatusOK,
			body:       `{"track":"Song B","artist":"Artist B","art_url":""}`,
			expected:   domain.TrackInfo{Track: "Song B", Artist: "Artist B"},
		},
		{
			name:       "Success - Art URL Absent Or Null",
			statusCode: http.StatusOK,
			body:       `{"track":"Song C","artist":"Artist C","art_url":null,"extra":1}`,
			expected:   domain.TrackInfo{Track: "Song C", Artist: "Artist C"},
		},
		{
			name:       "Success - UTF-8 Preserved",
			statusCode: http.StatusOK,
			body:       `{"track":"Für Elise ♪","artist":"Beethoven","art_url":"http://x/b.bmp"}`,
			expected:   domain.TrackInfo{Track: "Für Elise ♪", Artist: "Beethoven", ArtURL: "http://x/b.bmp"},
		},
		{
			name:          "Error - Service Unavailable",
			statusCode:    http.StatusServiceUnavailable,
			body:          `{"error":"down"}`,
			expectedKind:  domain.ErrServer,
			expectedError: "unexpected status code: 503",
		},
		{
			name:          "Error - Unauthorized",
			statusCode:    http.StatusUnauthorized,
			body:          `{"error":"Unauthorized"}`,
			expectedKind:  domain.ErrServer,
			expectedError: "unexpected status code: 401",
		},
		{
			name:          "Error - Malformed JSON",
			statusCode:    http.StatusOK,
			body:          `{not-json`,
			expectedKind:  domain.ErrParse,
			expectedError: "decode response",
		},
		{
			name:          "Error - Empty Body",
			statusCode:    http.StatusOK,
			body:          "",
			expectedKind:  domain.ErrParse,
			expectedError: "empty body",
		},
		{
			name:          "Error - Missing Track",
			statusCode:    http.StatusOK,
			body:          `{"artist":"Artist A","art_url":""}`,
			expectedKind:  domain.ErrParse,
			expectedError: `missing field "track"`,
		},
		{
			name:          "Error - Missing Artist",
			statusCode:    http.StatusOK,
			body:          `{"track":"Song A"}`,
			expectedKind:  domain.ErrParse,
			expectedError: `missing field "artist"`,
		},
		{
			name:         "Error - Wrong Field Type",
			statusCode:   http.StatusOK,
			body:         `{"track":42,"artist":"A"}`,
			expectedKind: domain.ErrParse,
		},
		{
			name:         "Error - Array Body",
			statusCode:   http.StatusOK,
			body:         `[]`,
			expectedKind: domain.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotUser, gotAccept string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotUser = r.URL.Query().Get("userId")
				gotAccept = r.Header.Get("Accept")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			t.Cleanup(cancel)

			c := newTestClient(t, server.URL, "vobot")
			info, err := c.FetchTrackInfo(ctx)

			if gotPath != "/current-track" || gotUser != "vobot" {
				t.Errorf("request = %s?userId=%s, want /current-track?userId=vobot", gotPath, gotUser)
			}
			if gotAccept != "application/json" {
				t.Errorf("Accept = %q, want application/json", gotAccept)
			}

			if tt.expectedKind != nil {
				if err == nil {
					t.Fatalf("expected %v, got nil", tt.expectedKind)
				}
				if !errors.Is(err, tt.expectedKind) {
					t.Errorf("expected error to match %v, got %v", tt.expectedKind, err)
				}
				if tt.expectedError != "" && !strings.Contains(err.Error(), tt.expectedError) {
					t.Errorf("expected error '%s' to contain '%s'", err.Error(), tt.expectedError)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, info)
			}
		})
	}
}

func TestTrackClient_ServerErrorKeepsStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Failed to fetch track", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	_, err := newTestClient(t, server.URL, "vobot").FetchTrackInfo(context.Background())

	var se *domain.ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if se.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode: expected 500, got %d", se.StatusCode)
	}
}

func TestTrackClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // nothing listens on url anymore

	_, err := newTestClient(t, url, "vobot").FetchTrackInfo(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt([]byte("  short  ")); got != "short" {
		t.Errorf("expected 'short', got %q", got)
	}
	long := strings.Repeat("é", 200)
	got := excerpt([]byte(long))
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncated excerpt, got %q", got)
	}
	if len(got) > errorBodyExcerpt+3 {
		t.Errorf("excerpt too long: %d bytes", len(got))
	}
}
