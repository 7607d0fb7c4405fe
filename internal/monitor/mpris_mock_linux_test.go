package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/genricoloni/nowplaying/internal/domain"
	"github.com/genricoloni/nowplaying/internal/monitor/mocks"
	"github.com/godbus/dbus/v5"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestFetchPlayerMetadata(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(*mocks.MockDBusClient)
		expectError   bool
		expectedEvent *domain.MediaMetadata
	}{
		{
			name: "Success - Valid Metadata",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propMetadata).
					Return(dbus.MakeVariant(map[string]dbus.Variant{
						"xesam:title":  dbus.MakeVariant("Stairway to Heaven"),
						"xesam:artist": dbus.MakeVariant([]string{"Led Zeppelin"}),
					}), nil)
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propPlaybackStatus).
					Return(dbus.MakeVariant("Playing"), nil)
			},
			expectedEvent: &domain.MediaMetadata{
				Player: spotify,
				Title:  "Stairway to Heaven",
				Artist: "Led Zeppelin",
				Status: domain.StatusPlaying,
			},
		},
		{
			name: "DBus Error - Metadata",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propMetadata).
					Return(dbus.MakeVariant(""), fmt.Errorf("connection timeout"))
			},
			expectError: true,
		},
		{
			name: "DBus Error - Status",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propMetadata).
					Return(dbus.MakeVariant(map[string]dbus.Variant{}), nil)
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propPlaybackStatus).
					Return(dbus.MakeVariant(""), fmt.Errorf("no reply"))
			},
			expectError: true,
		},
		{
			name: "Invalid Data - Metadata is Int not Map",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propMetadata).
					Return(dbus.MakeVariant(12345), nil)
			},
		},
		{
			name: "Invalid Data - Status is Int",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propMetadata).
					Return(dbus.MakeVariant(map[string]dbus.Variant{}), nil)
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propPlaybackStatus).
					Return(dbus.MakeVariant(3), nil)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockClient := mocks.NewMockDBusClient(ctrl)
			tt.setupMock(mockClient)

			mon := NewMprisMonitor(zap.NewNop())
			mon.conn = mockClient
			mon.running = true

			err := mon.fetchPlayerMetadata(spotify)
			if tt.expectError != (err != nil) {
				t.Fatalf("err = %v, expectError = %v", err, tt.expectError)
			}

			select {
			case ev := <-mon.Events():
				if tt.expectedEvent == nil {
					t.Errorf("unexpected event: %+v", ev)
				} else if ev != *tt.expectedEvent {
					t.Errorf("event = %+v, want %+v", ev, *tt.expectedEvent)
				}
			default:
				if tt.expectedEvent != nil {
					t.Error("expected event was not emitted")
				}
			}
		})
	}
}

func TestDetectExistingPlayers(t *testing.T) {
	const vlc = "org.mpris.MediaPlayer2.vlc"

	tests := []struct {
		name             string
		setupMock        func(*mocks.MockDBusClient)
		expectError      bool
		expectedEvents   int
		expectedMappings map[string]string
	}{
		{
			name: "Success - Detects Spotify and VLC",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames().Return([]string{
					"org.freedesktop.DBus",
					spotify,
					vlc,
					"com.example.OtherApp",
				}, nil)

				m.EXPECT().GetNameOwner(spotify).Return(":1.100", nil)
				m.EXPECT().GetNameOwner(vlc).Return(":1.200", nil)

				gomock.InOrder(
					m.EXPECT().GetProperty(spotify, mprisObjectPath, propMetadata).
						Return(dbus.MakeVariant(map[string]dbus.Variant{"xesam:title": dbus.MakeVariant("Song A")}), nil),
					m.EXPECT().GetProperty(spotify, mprisObjectPath, propPlaybackStatus).
						Return(dbus.MakeVariant("Playing"), nil),
				)
				gomock.InOrder(
					m.EXPECT().GetProperty(vlc, mprisObjectPath, propMetadata).
						Return(dbus.MakeVariant(map[string]dbus.Variant{"xesam:title": dbus.MakeVariant("Video B")}), nil),
					m.EXPECT().GetProperty(vlc, mprisObjectPath, propPlaybackStatus).
						Return(dbus.MakeVariant("Paused"), nil),
				)
			},
			expectedEvents: 2,
			expectedMappings: map[string]string{
				":1.100": spotify,
				":1.200": vlc,
			},
		},
		{
			name: "Owner Lookup Fails - Still Fetches",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames().Return([]string{spotify}, nil)
				m.EXPECT().GetNameOwner(spotify).Return("", fmt.Errorf("gone"))
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propMetadata).
					Return(dbus.MakeVariant(map[string]dbus.Variant{}), nil)
				m.EXPECT().GetProperty(spotify, mprisObjectPath, propPlaybackStatus).
					Return(dbus.MakeVariant("Stopped"), nil)
			},
			expectedEvents:   1,
			expectedMappings: map[string]string{},
		},
		{
			name: "Failure - ListNames fails",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames().Return(nil, fmt.Errorf("bus error"))
			},
			expectError:      true,
			expectedMappings: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockClient := mocks.NewMockDBusClient(ctrl)
			tt.setupMock(mockClient)

			mon := NewMprisMonitor(zap.NewNop())
			mon.conn = mockClient
			mon.running = true

			err := mon.detectExistingPlayers()
			if tt.expectError != (err != nil) {
				t.Fatalf("err = %v, expectError = %v", err, tt.expectError)
			}

			if len(mon.players) != len(tt.expectedMappings) {
				t.Errorf("mappings = %v, want %v", mon.players, tt.expectedMappings)
			}
			for k, v := range tt.expectedMappings {
				if mon.players[k] != v {
					t.Errorf("mapping for %s = %q, want %q", k, mon.players[k], v)
				}
			}

			if got := len(mon.Events()); got != tt.expectedEvents {
				t.Errorf("events = %d, want %d", got, tt.expectedEvents)
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockClient := mocks.NewMockDBusClient(ctrl)

	detected := make(chan struct{})
	mockClient.EXPECT().AddMatchSignal(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	mockClient.EXPECT().AddMatchSignal(gomock.Any(), gomock.Any()).Return(nil)
	mockClient.EXPECT().ListNames().DoAndReturn(func() ([]string, error) {
		close(detected)
		return nil, nil
	})
	mockClient.EXPECT().Signal(gomock.Any())
	mockClient.EXPECT().Close().Return(nil)

	mon := NewMprisMonitor(zap.NewNop())
	mon.dial = func() (DBusClient, error) { return mockClient, nil }

	startErr := make(chan error, 1)
	go func() { startErr <- mon.Start(testContext(t)) }()

	select {
	case <-detected:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not start")
	}

	ctx, cancel := context.WithTimeout(testContext(t), 2*time.Second)
	defer cancel()
	if err := mon.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err := <-startErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	if _, ok := <-mon.Events(); ok {
		t.Error("events channel should be closed")
	}
}

func TestStart_Failures(t *testing.T) {
	tests := []struct {
		name      string
		dial      func(*mocks.MockDBusClient) func() (DBusClient, error)
		errSubstr string
	}{
		{
			name: "Dial Fails",
			dial: func(*mocks.MockDBusClient) func() (DBusClient, error) {
				return func() (DBusClient, error) { return nil, errors.New("no session bus") }
			},
			errSubstr: "session bus connection failed",
		},
		{
			name: "Match Rule Fails",
			dial: func(m *mocks.MockDBusClient) func() (DBusClient, error) {
				m.EXPECT().AddMatchSignal(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("denied"))
				m.EXPECT().Close().Return(nil)
				return func() (DBusClient, error) { return m, nil }
			},
			errSubstr: "failed to add match signal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockClient := mocks.NewMockDBusClient(ctrl)

			mon := NewMprisMonitor(zap.NewNop())
			mon.dial = tt.dial(mockClient)

			err := mon.Start(testContext(t))
			if err == nil || !strings.Contains(err.Error(), tt.errSubstr) {
				t.Fatalf("err = %v, want containing %q", err, tt.errSubstr)
			}
			if mon.running {
				t.Error("monitor should not be running after a failed start")
			}
		})
	}
}
