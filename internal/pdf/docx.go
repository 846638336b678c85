package pdf

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"

	"ocr-translator/internal/logger"
)

const corePropsPart = "docProps/core.xml"

// A4 in twentieths of a point, with 2 cm margins.
var (
	a4Width    uint64 = 11906
	a4Height   uint64 = 16838
	docxMargin        = 1134
)

// DocxRenderer 生成双语 Word (.docx) 文档
type DocxRenderer struct{}

// NewDocxRenderer creates a Word renderer.
func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{}
}

// runStyle is the character formatting applied to every run of a paragraph.
type runStyle struct {
	bold  bool
	size  uint64 // points
	color string
	shade string
}

// Render writes contents to outputPath as an Office Open XML document. A .doc
// path still receives .docx content, which Word opens without complaint.
func (r *DocxRenderer) Render(contents []BilingualContent, layout Layout, outputPath, title string) error {
	if outputPath == "" {
		return NewPDFError(ErrGenerateFailed, "输出路径不能为空", nil)
	}
	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewPDFError(ErrGenerateFailed, "无法创建输出目录", err)
		}
	}

	doc, err := godocx.NewDocument()
	if err != nil {
		return NewPDFError(ErrGenerateFailed, "Word 文档初始化失败", err)
	}
	setA4(doc)
	setCoreTitle(doc, title)

	if title != "" {
		p := doc.AddEmptyParagraph()
		p.Justification(stypes.JustificationCenter)
		addRuns(p, title, runStyle{bold: true, size: 16})
	}

	for i, content := range contents {
		if i > 0 {
			doc.AddPageBreak()
		}
		addRuns(doc.AddEmptyParagraph(), fmt.Sprintf("Page %d", content.PageIndex+1),
			runStyle{bold: true, size: 13, color: "5A5A5A"})

		switch layout {
		case LayoutTranslationOnly:
			for _, text := range paragraphs(content.Translated) {
				addRuns(doc.AddEmptyParagraph(), text, runStyle{})
			}
		case LayoutInterleaved:
			orig := paragraphs(content.Original)
			trans := paragraphs(content.Translated)
			for j := 0; j < len(orig) || j < len(trans); j++ {
				if j < len(orig) {
					addRuns(doc.AddEmptyParagraph(), orig[j], runStyle{color: "505050", shade: "F0F0F0"})
				}
				if j < len(trans) {
					addRuns(doc.AddEmptyParagraph(), trans[j], runStyle{})
				}
			}
		default:
			addDualTable(doc, content)
		}
	}

	if err := doc.SaveTo(outputPath); err != nil {
		return NewPDFErrorWithDetails(ErrGenerateFailed, "Word 文档写入失败", outputPath, err)
	}

	logger.Info("docx rendered",
		logger.String("output", outputPath),
		logger.Int("pages", len(contents)),
		logger.String("layout", layout.String()))
	return nil
}

// addDualTable adds a two-column table with one row per paragraph pair.
func addDualTable(doc *docx.RootDoc, content BilingualContent) {
	orig := paragraphs(content.Original)
	trans := paragraphs(content.Translated)
	if len(orig) == 0 && len(trans) == 0 {
		return
	}

	tbl := doc.AddTable()
	tbl.Style("TableGrid")
	tbl.Width(5000, stypes.TableWidthPct).Layout(stypes.TableLayoutFixed).Grid(4819, 4819)
	for j := 0; j < len(orig) || j < len(trans); j++ {
		row := tbl.AddRow()
		for _, col := range [][]string{orig, trans} {
			cell := row.AddCell().Width(2500, stypes.TableWidthPct)
			text := ""
			if j < len(col) {
				text = col[j]
			}
			addRuns(cell.AddEmptyPara(), text, runStyle{})
		}
	}
	doc.AddEmptyParagraph()
}

// addRuns appends text to p, one run per line joined by line breaks.
func addRuns(p *docx.Paragraph, text string, style runStyle) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			p.AddRun().AddBreak(nil)
		}
		run := p.AddText(line)
		if style.bold {
			run.Bold(true)
		}
		if style.size > 0 {
			run.Size(style.size)
		}
		if style.color != "" {
			run.Color(style.color)
		}
		if style.shade != "" {
			run.Shading(stypes.ShdClear, "auto", style.shade)
		}
	}
}

func setA4(doc *docx.RootDoc) {
	body := doc.Document.Body
	if body.SectPr == nil {
		body.SectPr = ctypes.NewSectionProper()
	}
	body.SectPr.PageSize = &ctypes.PageSize{Width: &a4Width, Height: &a4Height}
	body.SectPr.PageMargin = &ctypes.PageMargin{
		Top: &docxMargin, Bottom: &docxMargin, Left: &docxMargin, Right: &docxMargin,
	}
}

// setCoreTitle fills dc:title and dc:creator in the packaged core properties.
func setCoreTitle(doc *docx.RootDoc, title string) {
	v, ok := doc.FileMap.Load(corePropsPart)
	if !ok {
		return
	}
	core, ok := v.([]byte)
	if !ok {
		return
	}
	core = bytes.Replace(core, []byte("<dc:title/>"), []byte("<dc:title>"+escapeXML(title)+"</dc:title>"), 1)
	core = bytes.Replace(core, []byte("<dc:creator>gomutex</dc:creator>"), []byte("<dc:creator>ocr-translator</dc:creator>"), 1)
	doc.FileMap.Store(corePropsPart, core)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
