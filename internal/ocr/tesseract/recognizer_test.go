package tesseract

import (
	"testing"

	"ocr-translator/internal/types"
)

func TestFactoryRejectsUnknownLanguage(t *testing.T) {
	r, err := Factory(types.Config{OCRLanguage: "not a language!"})
	if err == nil {
		r.Close()
		t.Fatal("expected an error for an unknown OCR language")
	}
}
