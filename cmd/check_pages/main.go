// Command check_pages validates that every recognized page of a run has a
// translation. Pages with OCR text but an empty translation usually mean the
// model dropped a page marker.
//
// Usage:
//
//	go run cmd/check_pages/main.go <work-dir>
package main

import (
	"fmt"
	"os"
	"strings"

	"ocr-translator/internal/artifacts"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: check_pages <work-dir>")
		fmt.Println()
		fmt.Println("This tool compares the OCR and translation records of a work directory.")
		fmt.Println("It reports:")
		fmt.Println("  - Pages recognized but missing a translation record")
		fmt.Println("  - Pages with text whose translation is empty")
		os.Exit(1)
	}

	store, err := artifacts.NewStore(os.Args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ocrRecords, err := store.LoadOCR()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	translated, err := store.LoadTranslations()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	byPage := make(map[int]artifacts.PageRecord, len(translated))
	for _, rec := range translated {
		byPage[rec.Page] = rec
	}

	fmt.Printf("Checking %d recognized page(s) in %s\n\n", len(ocrRecords), store.WorkDir())

	var missing, empty []int
	for _, rec := range ocrRecords {
		tr, ok := byPage[rec.Page]
		switch {
		case !ok:
			missing = append(missing, rec.Page)
		case strings.TrimSpace(rec.FullText) != "" && strings.TrimSpace(tr.Translation()) == "":
			empty = append(empty, rec.Page)
		}
	}

	if len(missing) == 0 && len(empty) == 0 {
		fmt.Println("✓ every page with text has a translation")
		return
	}
	if len(missing) > 0 {
		fmt.Printf("✗ no translation record: pages %v\n", missing)
	}
	if len(empty) > 0 {
		fmt.Printf("✗ empty translation: pages %v\n", empty)
	}
	os.Exit(2)
}
