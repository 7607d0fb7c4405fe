package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/genricoloni/nowplaying/internal/config"
	"github.com/genricoloni/nowplaying/internal/display"
	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap/zapcore"
)

func headlessEnv(t *testing.T, serverURL string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(config.EnvUserID, "")
	t.Setenv(config.EnvDebug, "")
	t.Setenv(config.EnvDisplay, config.DisplayHeadless)
	t.Setenv(config.EnvServerURL, serverURL)
}

// TestAppGraphValidity verifies that every dependency can be resolved.
func TestAppGraphValidity(t *testing.T) {
	if err := fx.ValidateApp(AppOptions); err != nil {
		t.Errorf("Dependency graph is not valid: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.Config{Display: config.DisplayHeadless})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Info("Test logger initialization")
}

func TestNewLogger_TerminalWritesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "state", "nowplaying.log")

	logger, err := newLogger(config.Config{Display: config.DisplayTerminal, LogFile: logFile, Debug: true})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug config should enable debug level")
	}
	logger.Info("to file")
	_ = logger.Sync()

	info, err := os.Stat(logFile)
	if err != nil {
		t.Fatalf("log file was not created: %v", err)
	}
	if info.Size() == 0 {
		t.Error("log file is empty")
	}
}

// TestEndToEndStartup runs the whole app against a fake now-playing server
// and waits for the initial poll to reach the headless display.
func TestEndToEndStartup(t *testing.T) {
	art := bytes.Repeat([]byte{0xAB}, 500)

	tests := []struct {
		name        string
		trackJSON   string
		expectedArt []byte
	}{
		{
			name:      "Labels Only",
			trackJSON: `{"track":"Song A","artist":"Artist A"}`,
		},
		{
			name:        "Art Bytes Reach Display Unchanged",
			trackJSON:   `{"track":"Song A","artist":"Artist A","art_url":"{{server}}/art/a.png"}`,
			expectedArt: art,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var srv *httptest.Server
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.URL.Path == "/current-track" && r.URL.Query().Get("userId") == "vobot":
					w.Header().Set("Content-Type", "application/json")
					_, _ = w.Write([]byte(strings.ReplaceAll(tt.trackJSON, "{{server}}", srv.URL)))
				case r.URL.Path == "/art/a.png":
					w.Header().Set("Content-Type", "image/png")
					_, _ = w.Write(art)
				default:
					http.NotFound(w, r)
				}
			}))
			defer srv.Close()
			headlessEnv(t, srv.URL)

			var disp domain.Display
			app := fx.New(
				AppOptions,
				fx.Populate(&disp),
				fx.NopLogger,
			)

			if err := app.Start(testContext(t)); err != nil {
				t.Fatalf("App failed to start: %v", err)
			}

			headless, ok := disp.(*display.Headless)
			if !ok {
				t.Fatalf("display = %T, want *display.Headless", disp)
			}

			deadline := time.Now().Add(5 * time.Second)
			for {
				if v, n := headless.Current(); n > 0 {
					if v.Track != "Song A" || v.Artist != "Artist A" {
						t.Errorf("view = %q/%q, want Song A/Artist A", v.Track, v.Artist)
					}
					if !bytes.Equal(v.Art, tt.expectedArt) {
						t.Errorf("art = %d bytes, want the %d served bytes", len(v.Art), len(tt.expectedArt))
					}
					break
				}
				if time.Now().After(deadline) {
					t.Fatal("initial poll was never rendered")
				}
				time.Sleep(10 * time.Millisecond)
			}

			if err := app.Stop(testContext(t)); err != nil {
				t.Fatalf("App failed to stop: %v", err)
			}
		})
	}
}

// TestEndToEndServerDown shows the fallback text when the server is unreachable.
func TestEndToEndServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	headlessEnv(t, url)

	var disp domain.Display
	app := fx.New(AppOptions, fx.Populate(&disp), fx.NopLogger)
	if err := app.Start(testContext(t)); err != nil {
		t.Fatalf("App failed to start: %v", err)
	}
	defer func() {
		if err := app.Stop(testContext(t)); err != nil {
			t.Errorf("App failed to stop: %v", err)
		}
	}()

	headless := disp.(*display.Headless)
	deadline := time.Now().Add(15 * time.Second)
	for {
		if v, n := headless.Current(); n > 0 {
			if v.Track != domain.FallbackTrackText || v.Artist != "" {
				t.Errorf("view = %q/%q, want fallback", v.Track, v.Artist)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("fallback was never rendered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
