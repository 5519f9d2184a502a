// Package sheet renders score sheets and set tables as terminal text.
package sheet

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/stats"
)

const (
	frameCellWidth = 5
	tenthCellWidth = 7
	widthBackup    = 80
)

// Render returns the classic ten-frame score sheet. When the available
// width cannot fit the full sheet it falls back to a one-frame-per-line
// listing.
func Render(s model.ScoreSheet, width int) string {
	if width <= 0 {
		width = TerminalWidth()
	}
	if width < fullSheetWidth() {
		return renderCompact(s)
	}
	return renderWide(s)
}

// TerminalWidth reports the stdout terminal width, or a fixed backup
// when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return widthBackup
	}
	return width
}

func fullSheetWidth() int {
	// 9 regular cells, the tenth cell, and 11 border columns.
	return 9*frameCellWidth + tenthCellWidth + 11
}

func renderWide(s model.ScoreSheet) string {
	numbers := make([]string, 10)
	symbols := make([]string, 10)
	totals := make([]string, 10)
	for i, f := range s.Frames {
		numbers[i] = strconv.Itoa(f.Number)
		symbols[i] = strings.Join(f.Symbols, " ")
		if f.Scored {
			totals[i] = strconv.Itoa(f.Cumulative)
		}
	}

	var b strings.Builder
	b.WriteString(borderRow("┌", "┬", "┐"))
	b.WriteByte('\n')
	b.WriteString(contentRow(numbers))
	b.WriteByte('\n')
	b.WriteString(contentRow(symbols))
	b.WriteByte('\n')
	b.WriteString(contentRow(totals))
	b.WriteByte('\n')
	b.WriteString(borderRow("└", "┴", "┘"))
	b.WriteByte('\n')
	b.WriteString(totalLine(s))
	return b.String()
}

func renderCompact(s model.ScoreSheet) string {
	var b strings.Builder
	for _, f := range s.Frames {
		total := ""
		if f.Scored {
			total = strconv.Itoa(f.Cumulative)
		}
		fmt.Fprintf(&b, "%2d  %-5s %s\n", f.Number, strings.Join(f.Symbols, " "), total)
	}
	b.WriteString(totalLine(s))
	return b.String()
}

func totalLine(s model.ScoreSheet) string {
	status := "in progress"
	if s.Complete {
		status = "final"
	}
	return fmt.Sprintf("Total %d (%s)   Max possible %d", s.Total, status, s.MaxPossible)
}

func borderRow(left, mid, right string) string {
	var b strings.Builder
	b.WriteString(left)
	for i := 0; i < 10; i++ {
		b.WriteString(strings.Repeat("─", cellWidth(i)))
		if i < 9 {
			b.WriteString(mid)
		}
	}
	b.WriteString(right)
	return b.String()
}

func contentRow(cells []string) string {
	var b strings.Builder
	b.WriteString("│")
	for i, cell := range cells {
		b.WriteString(centerCell(cell, cellWidth(i)))
		b.WriteString("│")
	}
	return b.String()
}

func cellWidth(frameIndex int) int {
	if frameIndex == 9 {
		return tenthCellWidth
	}
	return frameCellWidth
}

func centerCell(value string, width int) string {
	valueWidth := runewidth.StringWidth(value)
	if valueWidth >= width {
		return value
	}
	left := (width - valueWidth) / 2
	right := width - valueWidth - left
	return strings.Repeat(" ", left) + value + strings.Repeat(" ", right)
}

// SetTable renders one row per game of a set report plus aggregate lines.
func SetTable(report stats.Report) string {
	headers := []string{"Game", "Lane", "Score", "Max", "X", "/", "Splits", "Opens"}
	rows := make([][]string, 0, len(report.Games))
	for _, g := range report.Games {
		rows = append(rows, []string{
			strconv.Itoa(g.Game.Number),
			string(g.Game.StartingLane),
			strconv.Itoa(g.Sheet.Total),
			strconv.Itoa(g.Sheet.MaxPossible),
			strconv.Itoa(g.Strikes),
			fmt.Sprintf("%d/%d", g.Spares, g.SpareChances),
			fmt.Sprintf("%d/%d", g.SplitsConverted, g.Splits),
			strconv.Itoa(g.Opens),
		})
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true, 7: true}

	var b strings.Builder
	for _, line := range formatTable(headers, rows, rightAlign) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nStrikes %.0f%%   Spares %.0f%%   Splits converted %.0f%%\n",
		report.StrikePct*100, report.SparePct*100, report.SplitPct*100)
	for _, lane := range []model.Lane{model.LaneLeft, model.LaneRight} {
		if avg, ok := report.LaneAverages[lane]; ok {
			fmt.Fprintf(&b, "%s first ball %.1f\n", lane, avg)
		}
	}
	if totals := report.GameTotals(); len(totals) > 1 {
		fmt.Fprintf(&b, "Trend %s\n", stats.Sparkline(totals))
	}
	return b.String()
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, formatRow(headers, widths, rightAlignCols))
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := runewidth.StringWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}
