package widget

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vinylvault/models"
)

const gridColumns = 3

var (
	accent = lipgloss.Color("#1DB954")
	muted  = lipgloss.Color("#8A8A8A")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)
	spineStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true).BorderForeground(accent).Padding(0, 1)
)

// Render draws an entry for a terminal of the given width.
func Render(entry Entry, width int) string {
	if width <= 0 {
		width = 80
	}
	header := headerStyle.Render(fmt.Sprintf("My Vinyl · %d records", len(entry.Albums)))
	if len(entry.Albums) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, mutedStyle.Render("No albums to show"))
	}

	var body string
	switch entry.Style {
	case models.WidgetStyleShelf:
		body = renderShelf(entry.Albums, width)
	case models.WidgetStyleList:
		body = renderList(entry.Albums, width)
	default:
		body = renderGrid(entry.Albums, width)
	}
	footer := mutedStyle.Render("Next update " + entry.NextUpdate.Format("15:04"))
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func renderGrid(albums []models.AlbumRecord, width int) string {
	cellWidth := width/gridColumns - 4
	if cellWidth < 12 {
		cellWidth = 12
	}

	var rows []string
	for start := 0; start < len(albums); start += gridColumns {
		end := start + gridColumns
		if end > len(albums) {
			end = len(albums)
		}
		var cells []string
		for _, a := range albums[start:end] {
			content := lipgloss.JoinVertical(lipgloss.Left,
				coverLine(a),
				titleStyle.Render(truncate(a.Title, cellWidth)),
				truncate(a.Artist, cellWidth),
				mutedStyle.Render(yearLine(a)),
			)
			cells = append(cells, cardStyle.Width(cellWidth).Render(content))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderShelf lines the records up like spines, one column per album.
func renderShelf(albums []models.AlbumRecord, width int) string {
	spineWidth := width/len(albums) - 3
	if spineWidth < 4 {
		spineWidth = 4
	}
	spines := make([]string, 0, len(albums))
	for _, a := range albums {
		spines = append(spines, spineStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(truncate(a.Title, spineWidth)),
			mutedStyle.Render(truncate(a.Artist, spineWidth)),
		)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, spines...)
}

func renderList(albums []models.AlbumRecord, width int) string {
	lines := make([]string, 0, len(albums))
	for _, a := range albums {
		mark := " "
		if a.IsFavorite {
			mark = lipgloss.NewStyle().Foreground(accent).Render("♥")
		}
		line := fmt.Sprintf("%s %s · %s", mark, titleStyle.Render(a.Title), a.Artist)
		if a.ReleaseYear > 0 {
			line += mutedStyle.Render(fmt.Sprintf(" (%d)", a.ReleaseYear))
		}
		lines = append(lines, lipgloss.NewStyle().MaxWidth(width).Render(line))
	}
	return strings.Join(lines, "\n")
}

// coverLine stands in for the artwork, which a terminal cannot draw.
func coverLine(a models.AlbumRecord) string {
	if a.HasCover() {
		return lipgloss.NewStyle().Foreground(accent).Render("▣ cover")
	}
	return mutedStyle.Render("◎ no cover")
}

func yearLine(a models.AlbumRecord) string {
	if a.ReleaseYear == 0 {
		return a.Genre
	}
	return fmt.Sprintf("%d · %s", a.ReleaseYear, a.Genre)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
