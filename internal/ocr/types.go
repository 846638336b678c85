// Package ocr recognizes text on rasterized page images and assembles the
// recognized blocks into reading-order page text.
package ocr

import (
	"context"
	"fmt"
	"image"
	"math"
)

// Point is an (x, y) pixel coordinate, serialized as [x, y].
type Point [2]float64

// Position 文本块的轴对齐外接矩形（左上角坐标与宽高）
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextBlock 一个识别出的文本块
type TextBlock struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"` // [0, 1]
	BBox       []Point  `json:"bbox"`       // 四个顶点
	Position   Position `json:"position"`
}

// NewTextBlock builds a block and derives its Position from the polygon.
func NewTextBlock(text string, confidence float64, bbox []Point) TextBlock {
	return TextBlock{
		Text:       text,
		Confidence: confidence,
		BBox:       bbox,
		Position:   PositionOf(bbox),
	}
}

// PositionOf returns the min/max envelope of a polygon.
func PositionOf(bbox []Point) Position {
	if len(bbox) == 0 {
		return Position{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range bbox {
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	return Position{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Validate checks the polygon and confidence invariants.
func (b TextBlock) Validate() error {
	if len(b.BBox) != 4 {
		return fmt.Errorf("text block %q: bbox has %d points, want 4", b.Text, len(b.BBox))
	}
	if b.Confidence < 0 || b.Confidence > 1 || math.IsNaN(b.Confidence) {
		return fmt.Errorf("text block %q: confidence %g out of [0,1]", b.Text, b.Confidence)
	}
	return nil
}

// Recognizer extracts text blocks from one page image.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) ([]TextBlock, error)
	Close() error
}

// QuadFromRect lists the rectangle's corners clockwise from the top-left.
func QuadFromRect(rect image.Rectangle) []Point {
	x0, y0 := float64(rect.Min.X), float64(rect.Min.Y)
	x1, y1 := float64(rect.Max.X), float64(rect.Max.Y)
	return []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// ClampConfidence limits c to [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
