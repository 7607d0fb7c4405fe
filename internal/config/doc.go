// Package config loads the widget configuration.
//
// # Resolution Order
//
//  1. The file named by NOWPLAYING_CONFIG, or ~/.config/nowplaying/config.toml
//  2. Defaults for every missing field (a missing file is not an error)
//  3. Environment overrides: NOWPLAYING_SERVER_URL, NOWPLAYING_USER_ID,
//     NOWPLAYING_DISPLAY and NOWPLAYING_DEBUG
//
// # TOML Format
//
//	server_url    = "http://192.168.0.57:3000"
//	user_id       = "vobot"
//	poll_interval = "10s"
//	variant       = "full"      # or "simple"
//	display       = "terminal"  # or "headless"
//	debug         = true
//	log_file      = "~/.local/state/nowplaying/nowplaying.log"
//
//	[art]
//	resize = false              # true fits and re-encodes the art
//	format = "png"              # or "bmp"
//	width  = 320
//	height = 240
//
//	[triggers]
//	mpris = false
//
// The variant selects a preset: "full" uses a 320x240 art widget with debug
// logging, "simple" a 200x200 widget without it. Explicit art and debug
// settings override the preset.
//
// Strings are trimmed, "~" is expanded in paths, and unknown enum values or
// a poll interval below one second are rejected.
package config
