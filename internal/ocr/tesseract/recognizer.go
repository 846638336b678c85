// Package tesseract recognizes page text with the Tesseract engine through
// gosseract. It is the only package that needs the Tesseract and Leptonica
// libraries at build time.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/text/unicode/norm"

	"ocr-translator/internal/logger"
	"ocr-translator/internal/ocr"
	"ocr-translator/internal/types"
)

// Config configures the recognizer.
type Config struct {
	Language       string // CLI language option, see ocr.TesseractLanguages
	TessdataPrefix string
	Normalize      bool // NFC-normalize recognized text
}

// Recognizer recognizes text lines with tesseract. A single client is
// reused across pages, so it must not be shared between goroutines.
type Recognizer struct {
	client    *gosseract.Client
	languages []string
	normalize bool
}

// New creates a recognizer for the configured language.
func New(cfg Config) (*Recognizer, error) {
	langs, err := ocr.TesseractLanguages(cfg.Language)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	logger.Info("OCR engine initialized",
		logger.String("engine", "tesseract"),
		logger.String("languages", strings.Join(langs, "+")),
		logger.String("language", ocr.LanguageName(cfg.Language)))

	return &Recognizer{client: client, languages: langs, normalize: cfg.Normalize}, nil
}

// Recognize returns one block per recognized text line, in engine order.
func (r *Recognizer) Recognize(ctx context.Context, imagePath string) ([]ocr.TextBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", imagePath, err)
	}

	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract failed on %s: %w", imagePath, err)
	}

	blocks := make([]ocr.TextBlock, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		if r.normalize {
			text = norm.NFC.String(text)
		}
		blocks = append(blocks, ocr.NewTextBlock(text, ocr.ClampConfidence(box.Confidence/100), ocr.QuadFromRect(box.Box)))
	}

	logger.Debug("page recognized",
		logger.String("image", imagePath),
		logger.Int("blocks", len(blocks)))
	return blocks, nil
}

// Close releases the tesseract client.
func (r *Recognizer) Close() error {
	return r.client.Close()
}

// Factory builds a recognizer from the application config.
func Factory(cfg types.Config) (ocr.Recognizer, error) {
	return New(Config{
		Language:       cfg.OCRLanguage,
		TessdataPrefix: cfg.TessdataPrefix,
		Normalize:      cfg.NormalizeText,
	})
}
