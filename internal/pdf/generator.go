package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"ocr-translator/internal/logger"
)

const (
	fontFamily   = "body"
	bodyFontSize = 11.0
	headFontSize = 13.0
	lineHeight   = 16.0
	columnGap    = 18.0
	pageMargin   = 48.0
)

// systemFontCandidates lists TrueType fonts with wide Unicode coverage found
// on common systems. gofpdf cannot read .ttc collections.
var systemFontCandidates = []string{
	"/usr/share/fonts/truetype/noto/NotoSansSC-Regular.ttf",
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/usr/share/fonts/truetype/arphic-gkai00mp/gkai00mp.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	`C:\Windows\Fonts\simhei.ttf`,
	`C:\Windows\Fonts\msyh.ttf`,
	`C:\Windows\Fonts\arialuni.ttf`,
}

// PDFRenderer 使用 gofpdf 生成双语 PDF
type PDFRenderer struct {
	fontPath string
}

// NewPDFRenderer creates a renderer. An empty fontPath searches the system
// font locations at render time.
func NewPDFRenderer(fontPath string) *PDFRenderer {
	return &PDFRenderer{fontPath: fontPath}
}

// ResolveFont returns the configured font when it exists, otherwise the first
// system candidate that exists.
func (r *PDFRenderer) ResolveFont() (string, error) {
	if r.fontPath != "" {
		if _, err := os.Stat(r.fontPath); err != nil {
			return "", NewPDFErrorWithDetails(ErrFontNotFound, "字体文件不存在", r.fontPath, err)
		}
		return r.fontPath, nil
	}
	for _, candidate := range systemFontCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", NewPDFErrorWithDetails(ErrFontNotFound, "未找到可用的 Unicode 字体，请使用 --font 指定 TTF 字体",
		strings.Join(systemFontCandidates, ", "), nil)
}

// Render writes contents to outputPath as an A4 PDF.
func (r *PDFRenderer) Render(contents []BilingualContent, layout Layout, outputPath, title string) error {
	if outputPath == "" {
		return NewPDFError(ErrGenerateFailed, "输出路径不能为空", nil)
	}
	fontPath, err := r.ResolveFont()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewPDFError(ErrGenerateFailed, "无法创建输出目录", err)
		}
	}

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return NewPDFErrorWithDetails(ErrFontNotFound, "字体文件读取失败", fontPath, err)
	}

	// gofpdf joins font file names onto its font directory, so load from bytes
	doc := gofpdf.New("P", "pt", "A4", "")
	doc.AddUTF8FontFromBytes(fontFamily, "", fontBytes)
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.SetCreator("ocr-translator", true)
	if title != "" {
		doc.SetTitle(title, true)
	}
	if err := doc.Error(); err != nil {
		return NewPDFErrorWithDetails(ErrFontNotFound, "字体加载失败", fontPath, err)
	}

	if len(contents) == 0 {
		doc.AddPage()
		r.writeTitle(doc, title)
	}
	for i, content := range contents {
		doc.AddPage()
		if i == 0 {
			r.writeTitle(doc, title)
		}
		r.writePageHeader(doc, content.PageIndex)
		switch layout {
		case LayoutInterleaved:
			r.writeInterleaved(doc, content)
		case LayoutTranslationOnly:
			r.writeTranslationOnly(doc, content)
		default:
			r.writeDualColumn(doc, content)
		}
		if err := doc.Error(); err != nil {
			return NewPDFErrorWithPage(ErrGenerateFailed, "PDF 页面生成失败", content.PageIndex+1, err)
		}
	}

	if err := doc.OutputFileAndClose(outputPath); err != nil {
		return NewPDFErrorWithDetails(ErrGenerateFailed, "PDF 写入失败", outputPath, err)
	}

	if err := api.ValidateFile(outputPath, model.NewDefaultConfiguration()); err != nil {
		return NewPDFErrorWithDetails(ErrGenerateFailed, "生成的 PDF 校验失败", outputPath, err)
	}

	logger.Info("pdf rendered",
		logger.String("output", outputPath),
		logger.Int("pages", len(contents)),
		logger.String("layout", layout.String()))
	return nil
}

func (r *PDFRenderer) writeTitle(doc *gofpdf.Fpdf, title string) {
	if title == "" {
		return
	}
	doc.SetFont(fontFamily, "", headFontSize+4)
	doc.MultiCell(0, lineHeight+6, title, "", "C", false)
	doc.Ln(lineHeight / 2)
}

func (r *PDFRenderer) writePageHeader(doc *gofpdf.Fpdf, pageIndex int) {
	doc.SetFont(fontFamily, "", headFontSize)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(0, lineHeight, fmt.Sprintf("Page %d", pageIndex+1), "", 1, "L", false, 0, "")
	left, _, right, _ := doc.GetMargins()
	pageWidth, _ := doc.GetPageSize()
	y := doc.GetY() + 2
	doc.SetDrawColor(200, 200, 200)
	doc.SetLineWidth(0.5)
	doc.Line(left, y, pageWidth-right, y)
	doc.Ln(lineHeight / 2)
	doc.SetTextColor(0, 0, 0)
	doc.SetFont(fontFamily, "", bodyFontSize)
}

// writeDualColumn lays the original out on the left and the translation on
// the right, aligned paragraph by paragraph. Paragraphs that overflow the page
// continue on the next one.
func (r *PDFRenderer) writeDualColumn(doc *gofpdf.Fpdf, content BilingualContent) {
	left, _, right, bottom := doc.GetMargins()
	pageWidth, pageHeight := doc.GetPageSize()
	colWidth := (pageWidth - left - right - columnGap) / 2
	rightX := left + colWidth + columnGap

	orig := paragraphs(content.Original)
	trans := paragraphs(content.Translated)
	n := len(orig)
	if len(trans) > n {
		n = len(trans)
	}

	for i := 0; i < n; i++ {
		var leftLines, rightLines []string
		if i < len(orig) {
			leftLines = splitLines(doc, orig[i], colWidth)
		}
		if i < len(trans) {
			rightLines = splitLines(doc, trans[i], colWidth)
		}
		rows := len(leftLines)
		if len(rightLines) > rows {
			rows = len(rightLines)
		}
		for row := 0; row < rows; row++ {
			if doc.GetY()+lineHeight > pageHeight-bottom {
				doc.AddPage()
			}
			y := doc.GetY()
			if row < len(leftLines) {
				doc.SetXY(left, y)
				doc.CellFormat(colWidth, lineHeight, leftLines[row], "", 0, "L", false, 0, "")
			}
			if row < len(rightLines) {
				doc.SetXY(rightX, y)
				doc.CellFormat(colWidth, lineHeight, rightLines[row], "", 0, "L", false, 0, "")
			}
			doc.SetXY(left, y+lineHeight)
		}
		doc.Ln(lineHeight / 2)
	}
}

func (r *PDFRenderer) writeInterleaved(doc *gofpdf.Fpdf, content BilingualContent) {
	orig := paragraphs(content.Original)
	trans := paragraphs(content.Translated)
	n := len(orig)
	if len(trans) > n {
		n = len(trans)
	}
	for i := 0; i < n; i++ {
		if i < len(orig) {
			doc.SetFillColor(240, 240, 240)
			doc.SetTextColor(80, 80, 80)
			doc.MultiCell(0, lineHeight, orig[i], "", "L", true)
			doc.SetTextColor(0, 0, 0)
		}
		if i < len(trans) {
			doc.MultiCell(0, lineHeight, trans[i], "", "L", false)
		}
		doc.Ln(lineHeight / 2)
	}
}

func (r *PDFRenderer) writeTranslationOnly(doc *gofpdf.Fpdf, content BilingualContent) {
	for _, p := range paragraphs(content.Translated) {
		doc.MultiCell(0, lineHeight, p, "", "L", false)
		doc.Ln(lineHeight / 2)
	}
}

// splitLines wraps a paragraph to width, honouring its inner newlines.
func splitLines(doc *gofpdf.Fpdf, paragraph string, width float64) []string {
	var lines []string
	for _, raw := range strings.Split(paragraph, "\n") {
		if strings.TrimSpace(raw) == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, doc.SplitText(raw, width)...)
	}
	return lines
}
