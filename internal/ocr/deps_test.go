package ocr

import (
	"go/build"
	"strings"
	"testing"
)

// TestNoEngineDependency keeps the block types buildable without the
// Tesseract and Leptonica headers; artifacts and the CLI helpers import them.
func TestNoEngineDependency(t *testing.T) {
	pkg, err := build.ImportDir(".", 0)
	if err != nil {
		t.Fatalf("ImportDir() error = %v", err)
	}
	if len(pkg.CgoFiles) > 0 {
		t.Errorf("cgo files in package ocr: %v", pkg.CgoFiles)
	}
	for _, imp := range pkg.Imports {
		if strings.Contains(imp, "gosseract") || imp == "C" {
			t.Errorf("package ocr imports %s", imp)
		}
	}
}
