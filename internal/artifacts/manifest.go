package artifacts

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"ocr-translator/internal/types"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageExtract   Stage = "extract-images"
	StageRecognize Stage = "recognize-text"
	StageTranslate Stage = "translate"
	StageRender    Stage = "render-document"
)

// RunStatus is the outcome of the last stage that ran.
type RunStatus string

const (
	StatusRunning  RunStatus = "running"
	StatusComplete RunStatus = "complete"
	StatusError    RunStatus = "error"
)

// Manifest records what the work directory was last used for.
type Manifest struct {
	RunID        string    `json:"run_id"`
	SourceFile   string    `json:"source_file,omitempty"`
	SourceMD5    string    `json:"source_md5,omitempty"`
	PageCount    int       `json:"page_count,omitempty"`
	LastStage    Stage     `json:"last_stage,omitempty"`
	Status       RunStatus `json:"status,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	OutputFile   string    `json:"output_file,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ManifestPath returns the manifest location.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.workDir, ManifestFileName)
}

// LoadManifest reads the manifest; a missing file yields an empty manifest.
func (s *Store) LoadManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.ManifestPath())
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrArtifact, "无法读取运行记录", s.ManifestPath(), err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrArtifact, "运行记录格式错误", s.ManifestPath(), err)
	}
	return &m, nil
}

// SaveManifest writes the manifest, stamping UpdatedAt.
func (s *Store) SaveManifest(m *Manifest) error {
	m.UpdatedAt = time.Now()
	return writeJSON(s.ManifestPath(), m)
}

// UpdateStage records the status of a stage in the manifest.
func (s *Store) UpdateStage(stage Stage, status RunStatus, stageErr error) error {
	m, err := s.LoadManifest()
	if err != nil {
		return err
	}
	m.LastStage = stage
	m.Status = status
	m.ErrorMessage = ""
	if stageErr != nil {
		m.ErrorMessage = stageErr.Error()
	}
	return s.SaveManifest(m)
}

// CalculateFileMD5 calculates the MD5 hash of a file
func CalculateFileMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
