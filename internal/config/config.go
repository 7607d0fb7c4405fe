package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/genricoloni/nowplaying/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultConfigPath   = "~/.config/nowplaying/config.toml"
	defaultLogFile      = "~/.local/state/nowplaying/nowplaying.log"
	defaultServerURL    = "http://192.168.0.57:3000"
	defaultUserID       = "vobot"
	defaultPollInterval = 10 * time.Second
	minPollInterval     = time.Second

	VariantFull   = "full"
	VariantSimple = "simple"

	DisplayTerminal = "terminal"
	DisplayHeadless = "headless"

	FormatPNG = "png"
	FormatBMP = "bmp"
)

// Environment overrides, applied after the config file.
const (
	EnvConfigPath = "NOWPLAYING_CONFIG"
	EnvServerURL  = "NOWPLAYING_SERVER_URL"
	EnvUserID     = "NOWPLAYING_USER_ID"
	EnvDisplay    = "NOWPLAYING_DISPLAY"
	EnvDebug      = "NOWPLAYING_DEBUG"
)

// variantPreset bundles the settings a variant selects.
type variantPreset struct {
	art   domain.ArtSize
	debug bool
}

var variants = map[string]variantPreset{
	VariantFull:   {art: domain.ArtSize{Width: 320, Height: 240}, debug: true},
	VariantSimple: {art: domain.ArtSize{Width: 200, Height: 200}, debug: false},
}

// ArtConfig controls album art post-processing.
type ArtConfig struct {
	Resize bool
	Format string
	Width  int
	Height int
}

// Config holds the resolved application configuration.
type Config struct {
	ServerURL    string
	UserID       string
	PollInterval time.Duration
	Variant      string
	Display      string
	Debug        bool
	LogFile      string
	Art          ArtConfig
	MPRISTrigger bool
}

type rawConfig struct {
	ServerURL    string `toml:"server_url"`
	UserID       string `toml:"user_id"`
	PollInterval string `toml:"poll_interval"`
	Variant      string `toml:"variant"`
	Display      string `toml:"display"`
	Debug        *bool  `toml:"debug"`
	LogFile      string `toml:"log_file"`
	Art          struct {
		Resize *bool  `toml:"resize"`
		Format string `toml:"format"`
		Width  int    `toml:"width"`
		Height int    `toml:"height"`
	} `toml:"art"`
	Triggers struct {
		MPRIS bool `toml:"mpris"`
	} `toml:"triggers"`
}

// New loads the configuration from NOWPLAYING_CONFIG or the default path.
func New() (Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

// Load parses the config file at path, falling back to defaults when it is
// missing, then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	bytes, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if bytes != nil {
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&raw)

	cfg, err := build(raw)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ArtSize returns the size of the album art widget.
func (c Config) ArtSize() domain.ArtSize {
	return domain.ArtSize{Width: c.Art.Width, Height: c.Art.Height}
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return bytes, nil
}

func applyEnv(raw *rawConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		raw.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUserID)); v != "" {
		raw.UserID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDisplay)); v != "" {
		raw.Display = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebug)); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			raw.Debug = &debug
		}
	}
}

func build(raw rawConfig) (Config, error) {
	cfg := Config{
		ServerURL:    strings.TrimRight(strings.TrimSpace(raw.ServerURL), "/"),
		UserID:       strings.TrimSpace(raw.UserID),
		PollInterval: defaultPollInterval,
		Variant:      strings.ToLower(strings.TrimSpace(raw.Variant)),
		Display:      strings.ToLower(strings.TrimSpace(raw.Display)),
		MPRISTrigger: raw.Triggers.MPRIS,
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	if err := validateServerURL(cfg.ServerURL); err != nil {
		return Config{}, err
	}
	if cfg.UserID == "" {
		cfg.UserID = defaultUserID
	}

	if s := strings.TrimSpace(raw.PollInterval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("parse poll_interval %q: %w", s, err)
		}
		if d < minPollInterval {
			return Config{}, fmt.Errorf("poll_interval %s is below the %s minimum", d, minPollInterval)
		}
		cfg.PollInterval = d
	}

	if cfg.Variant == "" {
		cfg.Variant = VariantFull
	}
	preset, ok := variants[cfg.Variant]
	if !ok {
		return Config{}, fmt.Errorf("unknown variant %q", cfg.Variant)
	}

	switch cfg.Display {
	case "":
		cfg.Display = DisplayTerminal
	case DisplayTerminal, DisplayHeadless:
	default:
		return Config{}, fmt.Errorf("unknown display %q", cfg.Display)
	}

	cfg.Debug = preset.debug
	if raw.Debug != nil {
		cfg.Debug = *raw.Debug
	}

	cfg.Art = ArtConfig{
		Resize: false,
		Format: strings.ToLower(strings.TrimSpace(raw.Art.Format)),
		Width:  preset.art.Width,
		Height: preset.art.Height,
	}
	if raw.Art.Resize != nil {
		cfg.Art.Resize = *raw.Art.Resize
	}
	switch cfg.Art.Format {
	case "":
		cfg.Art.Format = FormatPNG
	case FormatPNG, FormatBMP:
	default:
		return Config{}, fmt.Errorf("unknown art format %q", cfg.Art.Format)
	}
	if raw.Art.Width < 0 || raw.Art.Height < 0 {
		return Config{}, fmt.Errorf("art size must not be negative")
	}
	if raw.Art.Width > 0 {
		cfg.Art.Width = raw.Art.Width
	}
	if raw.Art.Height > 0 {
		cfg.Art.Height = raw.Art.Height
	}

	logFile := strings.TrimSpace(raw.LogFile)
	if logFile == "" {
		logFile = defaultLogFile
	}
	cfg.LogFile = mustExpand(logFile)

	return cfg, nil
}

func validateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse server_url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server_url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("server_url %q has no host", raw)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
