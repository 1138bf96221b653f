package app

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/SirZenith/taskmon/common"
	"github.com/SirZenith/taskmon/history"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// DisplayDecimals is the number of fraction digits shown for balances.
const DisplayDecimals = 6

var (
	TitleStyle = lipgloss.NewStyle().Bold(true)
	LabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	LinkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Underline(true)

	confirmedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// StatusStyle returns colour used for a status word.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case string(history.StatusConfirmed), "executed", "complete":
		return confirmedStyle
	case string(history.StatusPending), "waiting":
		return pendingStyle
	case string(history.StatusFailed):
		return failedStyle
	default:
		return MutedStyle
	}
}

// RenderStatus capitalizes and colours status.
func RenderStatus(status string) string {
	return StatusStyle(status).Render(common.Capitalize(status))
}

// Amount formats wei with unit suffix.
func Amount(wei *big.Int, unit string) string {
	return common.FormatBalance(wei, DisplayDecimals) + " " + unit
}

// RelativeTime renders unix millisecond timestamp as "3 minutes ago".
func RelativeTime(ms int64) string {
	if ms <= 0 {
		return "Unknown time"
	}
	return humanize.Time(time.UnixMilli(ms))
}

// Field renders one "label: value" line.
func Field(label string, value any) string {
	return fmt.Sprintf("%s %v", LabelStyle.Render(label+":"), value)
}

// Table is a bordered table sized to its widest cell. Cells are never
// truncated so ids and links stay intact.
type Table struct {
	border  lipgloss.Border
	headers []string
	rows    [][]string
}

// NewTable returns a table with program wide border style.
func NewTable(headers ...string) *Table {
	return &Table{
		border:  lipgloss.RoundedBorder(),
		headers: headers,
	}
}

// Row appends a row, missing cells are left blank.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

func (t *Table) columnWidths() []int {
	count := len(t.headers)
	for _, row := range t.rows {
		count = max(count, len(row))
	}

	widths := make([]int, count)
	measure := func(cells []string) {
		for i, cell := range cells {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}

	return widths
}

func (t *Table) String() string {
	widths := t.columnWidths()
	if len(widths) == 0 {
		return ""
	}

	b := t.border
	rule := func(left, middle, right string) string {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat(b.Top, w+2)
		}
		return MutedStyle.Render(left + strings.Join(parts, middle) + right)
	}
	line := func(cells []string, style *lipgloss.Style) string {
		sep := MutedStyle.Render(b.Left)
		out := sep
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if style != nil {
				cell = style.Render(cell)
			}
			out += " " + cell + strings.Repeat(" ", w-lipgloss.Width(cell)) + " " + sep
		}
		return out
	}

	lines := []string{rule(b.TopLeft, b.MiddleTop, b.TopRight)}
	if len(t.headers) > 0 {
		lines = append(lines, line(t.headers, &TitleStyle), rule(b.MiddleLeft, b.Middle, b.MiddleRight))
	}
	for _, row := range t.rows {
		lines = append(lines, line(row, nil))
	}
	lines = append(lines, rule(b.BottomLeft, b.MiddleBottom, b.BottomRight))

	return strings.Join(lines, "\n")
}
