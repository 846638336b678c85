package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"ocr-translator/internal/logger"
)

// textLayerThreshold is the number of non-space characters on the first pages
// above which a document is considered to already carry a text layer.
const textLayerThreshold = 50

// CheckInputFile verifies that path names a readable regular .pdf file.
func CheckInputFile(path string) (os.FileInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewPDFErrorWithDetails(ErrPDFNotFound, "文件不存在，请检查路径", path, err)
		}
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "无法访问文件", path, err)
	}
	if fileInfo.IsDir() {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "路径指向目录而非文件", path, nil)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "输入文件不是 PDF", path, nil)
	}
	return fileInfo, nil
}

// Inspect 获取 PDF 基本信息（页数、文件大小、是否含文本层）
func Inspect(pdfPath string) (*PDFInfo, error) {
	fileInfo, err := CheckInputFile(pdfPath)
	if err != nil {
		return nil, err
	}

	pageCount, err := PageCount(pdfPath)
	if err != nil {
		return nil, err
	}

	isText, err := HasTextLayer(pdfPath)
	if err != nil {
		logger.Debug("text layer detection failed", logger.String("path", pdfPath), logger.Err(err))
		isText = false
	}

	return &PDFInfo{
		FilePath:  pdfPath,
		FileName:  filepath.Base(pdfPath),
		PageCount: pageCount,
		FileSize:  fileInfo.Size(),
		IsTextPDF: isText,
	}, nil
}

// PageCount reads the page count with pdfcpu and falls back to
// ledongthuc/pdf for files pdfcpu rejects.
func PageCount(pdfPath string) (int, error) {
	ctx, err := api.ReadContextFile(pdfPath)
	if err == nil {
		return ctx.PageCount, nil
	}
	logger.Debug("pdfcpu could not read file, falling back", logger.String("path", pdfPath), logger.Err(err))

	f, r, ferr := pdf.Open(pdfPath)
	if ferr != nil {
		return 0, NewPDFErrorWithDetails(ErrPDFInvalid, "无法打开 PDF 文件", pdfPath, ferr)
	}
	defer f.Close()
	return r.NumPage(), nil
}

// HasTextLayer reports whether the first pages already contain extractable
// text, which usually means the document is not a scan.
func HasTextLayer(pdfPath string) (bool, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return false, NewPDFError(ErrPDFInvalid, "无法打开 PDF 文件", err)
	}
	defer f.Close()

	maxPagesToCheck := 3
	if r.NumPage() < maxPagesToCheck {
		maxPagesToCheck = r.NumPage()
	}

	total := 0
	for pageNum := 1; pageNum <= maxPagesToCheck; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, c := range content {
			if !unicode.IsSpace(c) {
				total++
			}
		}
		if total > textLayerThreshold {
			return true, nil
		}
	}
	return false, nil
}
