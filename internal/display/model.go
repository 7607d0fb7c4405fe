package display

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/zap"
)

const (
	loadingText   = "Loading..."
	artLabel      = "♪"
	unfocusedText = "unfocused"
)

// renderMsg carries one complete View into the program so that all
// widgets change in the same update.
type renderMsg domain.View

// model is the Bubble Tea state of the terminal host. It owns the track
// label, the artist label and the art widget.
type model struct {
	logger *zap.Logger
	keys   keyMap
	styles styles
	emit   func(domain.HostEvent)

	artCols int
	artRows int

	track   string
	artist  string
	art     string
	focused bool
	renders int

	width  int
	height int
}

func newModel(logger *zap.Logger, size domain.ArtSize, emit func(domain.HostEvent)) model {
	cols, rows := artCells(size)
	return model{
		logger:  logger,
		keys:    defaultKeyMap(),
		styles:  newStyles(cols),
		emit:    emit,
		artCols: cols,
		artRows: rows,
		track:   loadingText,
		focused: true,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderMsg:
		m.apply(domain.View(msg))
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.emit(domain.HostEvent{Kind: domain.EventKey, Key: domain.KeyEnter})
		default:
			m.emit(domain.HostEvent{Kind: domain.EventKey, Key: domain.KeyOther})
		}
	case tea.FocusMsg:
		m.focused = true
		m.emit(domain.HostEvent{Kind: domain.EventFocused})
	case tea.BlurMsg:
		m.focused = false
		m.emit(domain.HostEvent{Kind: domain.EventBlurred})
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// apply sets both labels and, when the view carries art, the image.
// Art that cannot be decoded leaves the previous image in place.
func (m *model) apply(v domain.View) {
	m.track = v.Track
	m.artist = v.Artist
	m.renders++
	if v.Art == nil {
		return
	}
	art, err := renderArt(v.Art, m.artCols, m.artRows)
	if err != nil {
		m.logger.Warn("Failed to draw album art", zap.Error(err), zap.Int("bytes", len(v.Art)))
		return
	}
	m.art = art
}

func (m model) View() string {
	art := m.art
	if art == "" {
		art = placeholderArt(m.artCols, m.artRows, artLabel)
	}

	info := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Track.Render(m.track),
		m.styles.Artist.Render(m.artist),
	)

	footer := m.styles.Help.Render(m.keys.helpLine())
	if !m.focused {
		footer = m.styles.Status.Render(unfocusedText)
	}

	body := m.styles.Frame.Render(lipgloss.JoinVertical(lipgloss.Left, art, "", info, "", footer))
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	return body
}
