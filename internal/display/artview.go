package display

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/genricoloni/nowplaying/internal/domain"
)

// Terminal cells are roughly 10 px wide and 20 px tall; one cell shows two
// vertical pixels with the upper half block.
const (
	cellWidthPx  = 10
	cellHeightPx = 20
	halfBlock    = "▀"
)

// artCells converts the art widget size to a cell grid.
func artCells(size domain.ArtSize) (cols, rows int) {
	cols = max(size.Width/cellWidthPx, 1)
	rows = max(size.Height/cellHeightPx, 1)
	return cols, rows
}

// renderArt decodes image bytes and draws them as colored half blocks
// that fit into cols x rows cells.
func renderArt(data []byte, cols, rows int) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode art: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return "", fmt.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}

	small := imaging.Fit(img, cols, rows*2, imaging.Box)
	w, h := small.Bounds().Dx(), small.Bounds().Dy()

	var b strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			top := small.NRGBAAt(x, y)
			bottom := top
			if y+1 < h {
				bottom = small.NRGBAAt(x, y+1)
			}
			b.WriteString(cellStyle(top, bottom).Render(halfBlock))
		}
	}
	return b.String(), nil
}

func cellStyle(top, bottom color.NRGBA) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(hex(top))).
		Background(lipgloss.Color(hex(bottom)))
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// placeholderArt fills the widget area when no image has been set.
func placeholderArt(cols, rows int, label string) string {
	blank := strings.Repeat(" ", cols)
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = blank
	}
	if label != "" && rows > 0 {
		lines[rows/2] = lipgloss.PlaceHorizontal(cols, lipgloss.Center, label)
	}
	return strings.Join(lines, "\n")
}
