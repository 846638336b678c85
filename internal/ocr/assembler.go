package ocr

import (
	"math"
	"sort"
	"strings"
)

// DefaultLineThreshold is the vertical distance, in pixels, within which two
// blocks are considered to sit on the same visual line.
const DefaultLineThreshold = 20.0

// AssemblePageText merges a page's blocks into reading order. Blocks are
// ordered top-to-bottom then left-to-right, grouped into lines while their y
// stays within lineThreshold of the first block of the line, and each line is
// ordered left-to-right. Words join with a space, lines with a newline.
// The input slice is not modified.
func AssemblePageText(blocks []TextBlock, lineThreshold float64) string {
	if len(blocks) == 0 {
		return ""
	}

	sorted := make([]TextBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Position, sorted[j].Position
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	var lines []string
	line := []TextBlock{sorted[0]}
	anchorY := sorted[0].Position.Y

	for _, block := range sorted[1:] {
		if math.Abs(block.Position.Y-anchorY) > lineThreshold {
			lines = append(lines, joinLine(line))
			line = line[:0:0]
			anchorY = block.Position.Y
		}
		line = append(line, block)
	}
	lines = append(lines, joinLine(line))

	return strings.Join(lines, "\n")
}

func joinLine(line []TextBlock) string {
	sort.SliceStable(line, func(i, j int) bool {
		return line[i].Position.X < line[j].Position.X
	})
	parts := make([]string, len(line))
	for i, b := range line {
		parts[i] = b.Text
	}
	return strings.Join(parts, " ")
}
