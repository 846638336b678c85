// Package pipeline runs the stages of a scanned-document translation: page
// images, OCR, cross-page translation and bilingual rendering. Each stage
// reads the previous stage's artifacts from the work directory, so stages can
// be run one at a time or all together.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ocr-translator/internal/artifacts"
	"ocr-translator/internal/logger"
	"ocr-translator/internal/ocr"
	"ocr-translator/internal/pdf"
	"ocr-translator/internal/translator"
	"ocr-translator/internal/types"
)

// Rasterizer renders PDF pages to images.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outputDir string, pageRange pdf.PageRange, progress pdf.PageProgress) ([]pdf.PageImage, error)
}

// RecognizerFactory opens an OCR engine for the duration of one stage.
type RecognizerFactory func(cfg types.Config) (ocr.Recognizer, error)

// BackendFactory creates the translation backend.
type BackendFactory func(ctx context.Context, cfg types.Config) (translator.Backend, error)

// RendererFactory picks a renderer for an output path.
type RendererFactory func(outputPath string, cfg types.Config) pdf.Renderer

// Status 阶段进度
type Status struct {
	Stage   artifacts.Stage
	Done    int
	Total   int
	Message string
}

// StatusCallback receives stage progress.
type StatusCallback func(status Status)

// Pipeline wires the stages to one work directory.
type Pipeline struct {
	cfg   types.Config
	store *artifacts.Store

	rasterizer    Rasterizer
	newRecognizer RecognizerFactory
	newBackend    BackendFactory
	newRenderer   RendererFactory
	onStatus      StatusCallback
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithRasterizer replaces the MuPDF rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(p *Pipeline) { p.rasterizer = r }
}

// WithRecognizerFactory sets the OCR engine. RecognizeText fails without one.
func WithRecognizerFactory(f RecognizerFactory) Option {
	return func(p *Pipeline) { p.newRecognizer = f }
}

// WithBackendFactory replaces the provider-selected backend.
func WithBackendFactory(f BackendFactory) Option {
	return func(p *Pipeline) { p.newBackend = f }
}

// WithRendererFactory replaces output format selection.
func WithRendererFactory(f RendererFactory) Option {
	return func(p *Pipeline) { p.newRenderer = f }
}

// WithStatusCallback registers a progress listener.
func WithStatusCallback(cb StatusCallback) Option {
	return func(p *Pipeline) { p.onStatus = cb }
}

// New creates a pipeline over store using cfg.
func New(cfg types.Config, store *artifacts.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		store:      store,
		rasterizer: pdf.NewRasterizer(cfg.DPI),
		newBackend: translator.NewBackend,
		newRenderer: func(outputPath string, cfg types.Config) pdf.Renderer {
			return pdf.RendererFor(outputPath, pdf.RenderOptions{FontPath: cfg.FontPath})
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the artifact store.
func (p *Pipeline) Store() *artifacts.Store {
	return p.store
}

func (p *Pipeline) report(stage artifacts.Stage, done, total int, message string) {
	if p.onStatus != nil {
		p.onStatus(Status{Stage: stage, Done: done, Total: total, Message: message})
	}
}

// finish records the stage outcome in the manifest. Manifest failures are
// logged, never returned, so they cannot mask the stage result.
func (p *Pipeline) finish(stage artifacts.Stage, err error) error {
	status := artifacts.StatusComplete
	if err != nil {
		status = artifacts.StatusError
		logger.Error("stage failed", err, logger.String("stage", string(stage)))
	}
	if merr := p.store.UpdateStage(stage, status, err); merr != nil {
		logger.Warn("failed to update run manifest", logger.Err(merr))
	}
	return err
}

// ExtractImages rasterizes the selected pages of pdfPath into the images
// directory, replacing images from earlier runs.
func (p *Pipeline) ExtractImages(ctx context.Context, pdfPath string, pageRange pdf.PageRange) ([]pdf.PageImage, error) {
	images, err := p.extractImages(ctx, pdfPath, pageRange)
	return images, p.finish(artifacts.StageExtract, err)
}

func (p *Pipeline) extractImages(ctx context.Context, pdfPath string, pageRange pdf.PageRange) ([]pdf.PageImage, error) {
	if _, err := pdf.CheckInputFile(pdfPath); err != nil {
		return nil, err
	}

	manifest := &artifacts.Manifest{
		RunID:      uuid.NewString(),
		SourceFile: pdfPath,
	}
	if sum, err := artifacts.CalculateFileMD5(pdfPath); err == nil {
		manifest.SourceMD5 = sum
	}

	// images from an earlier run stay in place until this one succeeds
	staging, err := p.store.StageImages()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	p.report(artifacts.StageExtract, 0, 0, "rasterizing "+filepath.Base(pdfPath))
	images, err := p.rasterizer.Rasterize(ctx, pdfPath, staging, pageRange, func(done, total int) {
		p.report(artifacts.StageExtract, done, total, "")
	})
	if err != nil {
		return nil, err
	}
	if err := p.store.CommitImages(staging); err != nil {
		return nil, err
	}
	for i := range images {
		images[i].Path = filepath.Join(p.store.ImagesDir(), filepath.Base(images[i].Path))
	}

	manifest.PageCount = len(images)
	if err := p.store.SaveManifest(manifest); err != nil {
		logger.Warn("failed to save run manifest", logger.Err(err))
	}
	logger.Info("page images extracted",
		logger.String("runId", manifest.RunID),
		logger.Int("pages", len(images)),
		logger.String("dir", p.store.ImagesDir()))
	return images, nil
}

// RecognizeText runs OCR over every page image and writes one record per page.
func (p *Pipeline) RecognizeText(ctx context.Context) ([]artifacts.PageRecord, error) {
	records, err := p.recognizeText(ctx)
	return records, p.finish(artifacts.StageRecognize, err)
}

func (p *Pipeline) recognizeText(ctx context.Context) ([]artifacts.PageRecord, error) {
	images, err := p.store.ListImages()
	if err != nil {
		return nil, err
	}

	sourceFile := ""
	if manifest, err := p.store.LoadManifest(); err == nil {
		sourceFile = manifest.SourceFile
	}

	if p.newRecognizer == nil {
		return nil, types.NewAppError(types.ErrConfig, "no OCR engine configured", nil)
	}
	recognizer, err := p.newRecognizer(p.cfg)
	if err != nil {
		return nil, err
	}
	defer recognizer.Close()

	if err := p.store.ResetDir(p.store.OCRDir()); err != nil {
		return nil, err
	}

	threshold := p.cfg.LineThreshold
	if threshold <= 0 {
		threshold = ocr.DefaultLineThreshold
	}
	log := logger.With(logger.String("stage", string(artifacts.StageRecognize)))

	records := make([]artifacts.PageRecord, 0, len(images))
	for i, imagePath := range images {
		if err := ctx.Err(); err != nil {
			return records, types.NewAppError(types.ErrOCR, "文字识别已取消", err)
		}

		page, err := artifacts.PageNumberFromFile(imagePath)
		if err != nil {
			return records, types.NewAppError(types.ErrInvalidInput, "无法识别图片页码", err)
		}

		blocks, err := recognizer.Recognize(ctx, imagePath)
		if err != nil {
			return records, types.NewAppErrorWithDetails(types.ErrOCR, "文字识别失败", filepath.Base(imagePath), err)
		}

		rec := artifacts.PageRecord{
			Page:           page,
			SourceFile:     sourceFile,
			ImageFile:      imagePath,
			TextBlocks:     blocks,
			FullText:       ocr.AssemblePageText(blocks, threshold),
			TextBlockCount: len(blocks),
		}
		if err := p.store.SaveOCR(rec); err != nil {
			return records, err
		}
		records = append(records, rec)

		log.Debug("page recognized", logger.Int("page", page), logger.Int("blocks", len(blocks)))
		p.report(artifacts.StageRecognize, i+1, len(images), "")
	}

	log.Info("text recognized", logger.Int("pages", len(records)))
	return records, nil
}

// Translate translates the OCR text of all pages as one document. Translation
// records are written only after the whole document succeeded.
func (p *Pipeline) Translate(ctx context.Context) ([]artifacts.PageRecord, error) {
	records, err := p.translate(ctx)
	return records, p.finish(artifacts.StageTranslate, err)
}

func (p *Pipeline) translate(ctx context.Context) ([]artifacts.PageRecord, error) {
	ocrRecords, err := p.store.LoadOCR()
	if err != nil {
		return nil, err
	}

	backend, err := p.newBackend(ctx, p.cfg)
	if err != nil {
		return nil, err
	}
	log := logger.With(
		logger.String("stage", string(artifacts.StageTranslate)),
		logger.String("backend", backend.Name()))

	var cache *translator.TranslationCache
	if !p.cfg.DisableCache {
		cache = translator.NewTranslationCache(p.store.CachePath())
		if err := cache.Load(); err != nil {
			log.Warn("ignoring unreadable translation cache", logger.Err(err))
			cache.Clear()
		}
	}

	doc := translator.NewDocumentTranslator(backend, translator.Options{
		SourceLanguage:  p.cfg.SourceLanguage,
		TargetLanguage:  p.cfg.TargetLanguage,
		CharacterBudget: p.cfg.CharacterBudget,
		Retry:           translator.RetryPolicyFromConfig(p.cfg),
		RequestInterval: p.cfg.RequestInterval(),
		Cache:           cache,
		Progress: func(completed, total int) {
			p.report(artifacts.StageTranslate, completed, total, "")
		},
	})

	pageTexts := make([]string, len(ocrRecords))
	for i, rec := range ocrRecords {
		pageTexts[i] = rec.FullText
	}

	translated, err := doc.TranslateDocument(ctx, pageTexts)
	if err != nil {
		return nil, err
	}

	if err := p.store.ResetDir(p.store.TranslationsDir()); err != nil {
		return nil, err
	}
	out := make([]artifacts.PageRecord, len(ocrRecords))
	for i, rec := range ocrRecords {
		out[i] = rec.WithTranslation(translated[i])
		if err := p.store.SaveTranslation(out[i]); err != nil {
			return nil, err
		}
	}

	stats := doc.Stats()
	log.Info("translation stage complete",
		logger.Int("pages", len(out)),
		logger.Int("units", stats.Units),
		logger.Int("cacheHits", stats.CacheHits))
	return out, nil
}

// BilingualContents pairs original and translated text per page, dropping
// pages where both are empty.
func BilingualContents(records []artifacts.PageRecord) []pdf.BilingualContent {
	contents := make([]pdf.BilingualContent, 0, len(records))
	for _, rec := range records {
		original := strings.TrimSpace(rec.FullText)
		translated := strings.TrimSpace(rec.Translation())
		if original == "" && translated == "" {
			continue
		}
		contents = append(contents, pdf.BilingualContent{
			PageIndex:  rec.Page - 1,
			Original:   original,
			Translated: translated,
		})
	}
	return contents
}

// RenderDocument writes the bilingual output document. An empty title falls
// back to the configured one.
func (p *Pipeline) RenderDocument(ctx context.Context, outputPath, title string) error {
	return p.finish(artifacts.StageRender, p.renderDocument(ctx, outputPath, title))
}

func (p *Pipeline) renderDocument(ctx context.Context, outputPath, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if outputPath == "" {
		return types.NewAppError(types.ErrInvalidInput, "未指定输出文件", nil)
	}
	layout, err := pdf.ParseLayout(p.cfg.Layout)
	if err != nil {
		return types.NewAppError(types.ErrConfig, "invalid layout", err)
	}
	if title == "" {
		title = p.cfg.Title
	}

	records, err := p.store.LoadTranslations()
	if err != nil {
		return err
	}
	contents := BilingualContents(records)

	p.report(artifacts.StageRender, 0, 1, "writing "+filepath.Base(outputPath))
	renderer := p.newRenderer(outputPath, p.cfg)
	if err := renderer.Render(contents, layout, outputPath, title); err != nil {
		return err
	}
	p.report(artifacts.StageRender, 1, 1, "")

	if manifest, err := p.store.LoadManifest(); err == nil {
		manifest.OutputFile = outputPath
		if err := p.store.SaveManifest(manifest); err != nil {
			logger.Warn("failed to save run manifest", logger.Err(err))
		}
	}
	logger.Info("document rendered",
		logger.String("output", outputPath),
		logger.Int("pages", len(contents)),
		logger.String("layout", layout.String()))
	return nil
}

// RunAll runs every stage in order and stops at the first failure.
func (p *Pipeline) RunAll(ctx context.Context, pdfPath string, pageRange pdf.PageRange, outputPath, title string) error {
	if _, err := p.ExtractImages(ctx, pdfPath, pageRange); err != nil {
		return err
	}
	if _, err := p.RecognizeText(ctx); err != nil {
		return err
	}
	if _, err := p.Translate(ctx); err != nil {
		return err
	}
	return p.RenderDocument(ctx, outputPath, title)
}
