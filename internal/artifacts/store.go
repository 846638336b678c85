// Package artifacts stores the per-stage, per-page intermediate files of a
// run in the work directory. Every page is an independent file, so re-running
// a stage overwrites rather than appends.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"ocr-translator/internal/ocr"
	"ocr-translator/internal/types"
)

// Work directory layout.
const (
	ImagesDir        = "images"
	OCRDir           = "ocr_results"
	TranslationsDir  = "translations"
	CacheFileName    = "translation_cache.json"
	ManifestFileName = "run.json"
)

// PageRecord is the JSON document written for one page by the OCR and
// translation stages.
type PageRecord struct {
	Page           int             `json:"page"` // 1-based source page number
	SourceFile     string          `json:"source_file"`
	ImageFile      string          `json:"image_file"`
	TextBlocks     []ocr.TextBlock `json:"text_blocks"`
	FullText       string          `json:"full_text"`
	TextBlockCount int             `json:"text_block_count"`
	// TranslatedText is set only on translation records.
	TranslatedText *string `json:"translated_text,omitempty"`
}

// Translation returns the translated text, or "" for OCR-only records.
func (r PageRecord) Translation() string {
	if r.TranslatedText == nil {
		return ""
	}
	return *r.TranslatedText
}

// WithTranslation returns a copy of the record carrying text as its translation.
func (r PageRecord) WithTranslation(text string) PageRecord {
	r.TranslatedText = &text
	return r
}

// Store manages artifacts under one work directory.
type Store struct {
	workDir string
}

// NewStore creates the work directory if needed.
func NewStore(workDir string) (*Store, error) {
	if workDir == "" {
		workDir = "."
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrArtifact, "无法创建工作目录", workDir, err)
	}
	return &Store{workDir: workDir}, nil
}

// WorkDir returns the root of the store.
func (s *Store) WorkDir() string { return s.workDir }

// ImagesDir returns the directory holding page images.
func (s *Store) ImagesDir() string { return filepath.Join(s.workDir, ImagesDir) }

// OCRDir returns the directory holding OCR records.
func (s *Store) OCRDir() string { return filepath.Join(s.workDir, OCRDir) }

// TranslationsDir returns the directory holding translation records.
func (s *Store) TranslationsDir() string { return filepath.Join(s.workDir, TranslationsDir) }

// CachePath returns the translation cache file path.
func (s *Store) CachePath() string { return filepath.Join(s.workDir, CacheFileName) }

// PageFileName is the record file name for a 1-based page number.
func PageFileName(page int) string {
	return fmt.Sprintf("page_%04d.json", page)
}

var pageFilePattern = regexp.MustCompile(`^page_(\d+)\.(png|json)$`)

// PageNumberFromFile recovers the 1-based page number from an artifact name
// such as page_0007.png.
func PageNumberFromFile(name string) (int, error) {
	m := pageFilePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, fmt.Errorf("not a page artifact: %s", name)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid page number in %s", name)
	}
	return n, nil
}

// ResetDir removes the page artifacts from dir so a stage re-run does not mix
// with pages from an earlier run over a different page range.
func (s *Store) ResetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "无法读取目录", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !pageFilePattern.MatchString(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return types.NewAppErrorWithDetails(types.ErrArtifact, "无法删除旧文件", e.Name(), err)
		}
	}
	return nil
}

// StageImages creates an empty directory inside the work directory for a
// rasterization run. Pass it to CommitImages on success; the caller removes it.
func (s *Store) StageImages() (string, error) {
	dir, err := os.MkdirTemp(s.workDir, ".images-")
	if err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrArtifact, "无法创建临时图片目录", s.workDir, err)
	}
	return dir, nil
}

// CommitImages replaces the page images with the ones in staging.
func (s *Store) CommitImages(staging string) error {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "无法读取临时图片目录", staging, err)
	}
	if err := os.MkdirAll(s.ImagesDir(), 0755); err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "无法创建图片目录", s.ImagesDir(), err)
	}
	if err := s.ResetDir(s.ImagesDir()); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !pageFilePattern.MatchString(e.Name()) {
			continue
		}
		if err := os.Rename(filepath.Join(staging, e.Name()), filepath.Join(s.ImagesDir(), e.Name())); err != nil {
			return types.NewAppErrorWithDetails(types.ErrArtifact, "无法移动页面图片", e.Name(), err)
		}
	}
	return nil
}

// ListImages returns the page images sorted by page number.
func (s *Store) ListImages() ([]string, error) {
	entries, err := os.ReadDir(s.ImagesDir())
	if err != nil && !os.IsNotExist(err) {
		return nil, types.NewAppErrorWithDetails(types.ErrArtifact, "无法读取图片目录", s.ImagesDir(), err)
	}

	type numbered struct {
		page int
		path string
	}
	var images []numbered
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		page, err := PageNumberFromFile(e.Name())
		if err != nil {
			continue
		}
		images = append(images, numbered{page, filepath.Join(s.ImagesDir(), e.Name())})
	}
	if len(images) == 0 {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"未找到页面图片，请先运行 extract-images", s.ImagesDir(), nil)
	}

	sort.Slice(images, func(i, j int) bool { return images[i].page < images[j].page })
	paths := make([]string, len(images))
	for i, img := range images {
		paths[i] = img.path
	}
	return paths, nil
}

// SaveOCR writes an OCR record.
func (s *Store) SaveOCR(rec PageRecord) error {
	return writeJSON(filepath.Join(s.OCRDir(), PageFileName(rec.Page)), rec)
}

// LoadOCR reads all OCR records sorted by page.
func (s *Store) LoadOCR() ([]PageRecord, error) {
	return loadRecords(s.OCRDir(), "未找到 OCR 结果，请先运行 recognize-text")
}

// SaveTranslation writes a translation record.
func (s *Store) SaveTranslation(rec PageRecord) error {
	return writeJSON(filepath.Join(s.TranslationsDir(), PageFileName(rec.Page)), rec)
}

// LoadTranslations reads all translation records sorted by page.
func (s *Store) LoadTranslations() ([]PageRecord, error) {
	return loadRecords(s.TranslationsDir(), "未找到翻译结果，请先运行 translate")
}

func loadRecords(dir, emptyMessage string) ([]PageRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, types.NewAppErrorWithDetails(types.ErrArtifact, "无法读取目录", dir, err)
	}

	var records []PageRecord
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if _, err := PageNumberFromFile(e.Name()); err != nil {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, types.NewAppErrorWithDetails(types.ErrArtifact, "无法读取结果文件", path, err)
		}
		var rec PageRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, types.NewAppErrorWithDetails(types.ErrArtifact, "结果文件格式错误", path, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, emptyMessage, dir, nil)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Page < records[j].Page })
	return records, nil
}

// writeJSON writes v indented, through a temporary file and rename.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "无法创建目录", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrArtifact, "序列化失败", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "写入文件失败", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "写入文件失败", path, err)
	}
	return nil
}
