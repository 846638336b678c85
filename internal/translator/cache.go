package translator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ocr-translator/internal/types"
)

// cacheVersion is bumped when the key derivation changes.
const cacheVersion = "2"

// CacheEntry 单个翻译单元的缓存记录
type CacheEntry struct {
	Hash        string    `json:"hash"`
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"created_at"`
}

// CacheFile 缓存文件结构
type CacheFile struct {
	Version string       `json:"version"`
	Entries []CacheEntry `json:"entries"`
}

// CacheKey identifies a unit translation. The same text translated by another
// model or into another language is a different entry.
type CacheKey struct {
	Namespace      string // backend name and model
	SourceLanguage string
	TargetLanguage string
	Text           string
}

// Hash 计算缓存键哈希（使用 SHA256）
func (k CacheKey) Hash() string {
	h := sha256.New()
	for _, part := range []string{k.Namespace, k.SourceLanguage, k.TargetLanguage, k.Text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TranslationCache 负责缓存翻译单元结果
type TranslationCache struct {
	cachePath string
	cache     map[string]CacheEntry
	mu        sync.RWMutex
}

// NewTranslationCache 创建新的翻译缓存实例; an empty path keeps it in memory.
func NewTranslationCache(cachePath string) *TranslationCache {
	return &TranslationCache{
		cachePath: cachePath,
		cache:     make(map[string]CacheEntry),
	}
}

// Get 获取缓存的翻译
func (c *TranslationCache) Get(key CacheKey) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[key.Hash()]
	if !ok {
		return "", false
	}
	return entry.Translation, true
}

// Set 设置翻译缓存
func (c *TranslationCache) Set(key CacheKey, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := key.Hash()
	c.cache[hash] = CacheEntry{
		Hash:        hash,
		Translation: translation,
		CreatedAt:   time.Now(),
	}
}

// Load 从文件加载缓存. A missing file or one written by another version
// leaves the cache empty.
func (c *TranslationCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachePath == "" {
		return nil
	}

	data, err := os.ReadFile(c.cachePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "failed to read cache file", c.cachePath, err)
	}

	var cacheFile CacheFile
	if err := json.Unmarshal(data, &cacheFile); err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "failed to parse cache file", c.cachePath, err)
	}

	c.cache = make(map[string]CacheEntry)
	if cacheFile.Version != cacheVersion {
		return nil
	}
	for _, entry := range cacheFile.Entries {
		c.cache[entry.Hash] = entry
	}
	return nil
}

// Save 保存缓存到文件. The file is replaced atomically so an interrupted run
// never leaves a truncated cache behind.
func (c *TranslationCache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cachePath == "" {
		return nil
	}

	entries := make([]CacheEntry, 0, len(c.cache))
	for _, entry := range c.cache {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Hash < entries[j].Hash })

	data, err := json.MarshalIndent(CacheFile{Version: cacheVersion, Entries: entries}, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrArtifact, "failed to marshal cache", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "failed to create cache directory", c.cachePath, err)
	}
	tmp := c.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "failed to write cache file", tmp, err)
	}
	if err := os.Rename(tmp, c.cachePath); err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "failed to write cache file", c.cachePath, err)
	}
	return nil
}

// Size 返回缓存中的条目数量
func (c *TranslationCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Clear 清空缓存
func (c *TranslationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]CacheEntry)
}

// GetCachePath 返回缓存文件路径
func (c *TranslationCache) GetCachePath() string {
	return c.cachePath
}
