package pdf

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"ocr-translator/internal/logger"
)

// DefaultDPI is the default rasterization resolution.
const DefaultDPI = 300

// PageProgress is called after each page of a stage completes.
type PageProgress func(done, total int)

// Rasterizer renders PDF pages to PNG files with MuPDF (go-fitz).
type Rasterizer struct {
	dpi float64
}

// NewRasterizer creates a rasterizer at the given resolution; non-positive
// values use DefaultDPI.
func NewRasterizer(dpi int) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Rasterizer{dpi: float64(dpi)}
}

// Rasterize renders the pages selected by pageRange into outputDir as
// page_NNNN.png, numbered by source page. Cancellation is checked between
// pages.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath, outputDir string, pageRange PageRange, progress PageProgress) ([]PageImage, error) {
	if _, err := CheckInputFile(pdfPath); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "无法打开 PDF 文件", pdfPath, err)
	}
	defer doc.Close()

	selected, err := pageRange.Clamp(doc.NumPage())
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, NewPDFError(ErrRasterFailed, "无法创建图片目录", err)
	}

	logger.Info("rasterizing pages",
		logger.String("pdf", filepath.Base(pdfPath)),
		logger.String("pages", selected.String()),
		logger.Float64("dpi", r.dpi))

	images := make([]PageImage, 0, selected.Len())
	for pageIndex := selected.Start; pageIndex < selected.End; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return images, NewPDFError(ErrCancelled, "光栅化已取消", err)
		}

		img, err := doc.ImageDPI(pageIndex, r.dpi)
		if err != nil {
			return images, NewPDFErrorWithPage(ErrRasterFailed, "页面渲染失败", pageIndex+1, err)
		}

		outPath := filepath.Join(outputDir, PageImageName(pageIndex))
		if err := writePNG(outPath, img); err != nil {
			return images, NewPDFErrorWithPage(ErrRasterFailed, "图片写入失败", pageIndex+1, err)
		}

		bounds := img.Bounds()
		images = append(images, PageImage{
			PageIndex: pageIndex,
			Path:      outPath,
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
		})
		logger.Debug("page rasterized", logger.Int("page", pageIndex+1), logger.String("path", outPath))

		if progress != nil {
			progress(len(images), selected.Len())
		}
	}

	return images, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
