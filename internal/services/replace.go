package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-replacer/internal/cache"
	"github.com/fyerfyer/pdf-replacer/internal/engine"
	"github.com/fyerfyer/pdf-replacer/internal/models"
	"github.com/fyerfyer/pdf-replacer/internal/pdfdoc"
	"github.com/fyerfyer/pdf-replacer/internal/repository"
)

// DocumentLoader 文档加载接口
type DocumentLoader interface {
	Load(path string) (*pdfdoc.Document, error)
}

// DocumentWriter 文档写出接口
type DocumentWriter interface {
	Write(doc *pdfdoc.Document, outPath string) error
}

// Result 单个文档的替换结果
type Result struct {
	DocumentID   string         `json:"document_id"`  // 文档ID
	InputPath    string         `json:"input_path"`   // 输入文件路径
	OutputPath   string         `json:"output_path"`  // 输出文件路径
	Pages        int            `json:"pages"`        // 页数
	Replacements int            `json:"replacements"` // 替换总次数
	Detail       map[string]int `json:"detail"`       // 逐键替换计数
	FromCache    bool           `json:"-"`            // 是否来自缓存
	Elapsed      time.Duration  `json:"-"`            // 处理耗时
}

// ReplaceService 文档替换服务
// 负责协调文档加载、逐页替换和写出
type ReplaceService struct {
	engine   *engine.Engine           // 替换引擎
	loader   DocumentLoader           // 文档加载器
	writer   DocumentWriter           // 文档写出器
	cache    cache.Cache              // 结果缓存，可选
	repo     repository.JobRepository // 任务仓储，可选
	cacheTTL time.Duration            // 缓存过期时间
	logger   *logrus.Logger           // 日志记录器
}

// ReplaceOption 替换服务配置选项
type ReplaceOption func(*ReplaceService)

// NewReplaceService 创建一个新的替换服务
func NewReplaceService(
	eng *engine.Engine,
	loader DocumentLoader,
	writer DocumentWriter,
	opts ...ReplaceOption,
) *ReplaceService {
	srv := &ReplaceService{
		engine:   eng,
		loader:   loader,
		writer:   writer,
		cacheTTL: time.Hour * 24, // 默认缓存过期时间
		logger:   logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) ReplaceOption {
	return func(s *ReplaceService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache 设置结果缓存
func WithCache(c cache.Cache) ReplaceOption {
	return func(s *ReplaceService) {
		s.cache = c
	}
}

// WithCacheTTL 设置缓存过期时间
func WithCacheTTL(ttl time.Duration) ReplaceOption {
	return func(s *ReplaceService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithJobRepository 设置任务仓储
func WithJobRepository(repo repository.JobRepository) ReplaceOption {
	return func(s *ReplaceService) {
		s.repo = repo
	}
}

// ReplaceDocument 对单个文档执行整表替换并写出新文件
// 文档内任何一页失败则整个文档失败，不产生半成品输出。
func (s *ReplaceService) ReplaceDocument(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	if inputPath == "" {
		return nil, errors.New("inputPath cannot be empty")
	}
	if outputPath == "" {
		return nil, errors.New("outputPath cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	s.logger.WithFields(logrus.Fields{
		"input":  inputPath,
		"output": outputPath,
	}).Info("Starting document replacement")

	digest, err := fileDigest(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: digest %s: %v", models.ErrDocumentRead, inputPath, err)
	}

	cacheKey := cache.ResultKey(digest, s.engine.Table().Fingerprint())
	if cached := s.lookupCache(cacheKey, outputPath); cached != nil {
		cached.Elapsed = time.Since(start)
		s.logger.WithField("input", inputPath).Info("Replacement result served from cache")
		return cached, nil
	}

	doc, err := s.loader.Load(inputPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		DocumentID: doc.ID,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Pages:      len(doc.Pages),
		Detail:     make(map[string]int),
	}

	for i := range doc.Pages {
		page := &doc.Pages[i]

		occurrences := engine.Locate(page.Runs, s.engine.Table())
		for _, occ := range occurrences {
			result.Detail[occ.Entry.Key]++
		}

		newRuns, count := engine.Apply(page.Runs, occurrences)
		page.Runs = newRuns
		result.Replacements += count
	}

	if err := s.writer.Write(doc, outputPath); err != nil {
		return nil, err
	}

	s.storeCache(cacheKey, result)
	result.Elapsed = time.Since(start)

	s.logger.WithFields(logrus.Fields{
		"input":        inputPath,
		"output":       outputPath,
		"pages":        result.Pages,
		"replacements": result.Replacements,
	}).Info("Document replacement completed")

	return result, nil
}

// lookupCache 查询结果缓存
// 只有输出文件仍然存在时命中才有效，否则重新处理。
func (s *ReplaceService) lookupCache(key, outputPath string) *Result {
	if s.cache == nil {
		return nil
	}

	value, found, err := s.cache.Get(key)
	if err != nil {
		s.logger.WithError(err).Warn("Result cache lookup failed")
		return nil
	}
	if !found {
		return nil
	}

	var result Result
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		s.logger.WithError(err).Warn("Failed to decode cached result")
		return nil
	}

	if result.OutputPath != outputPath {
		return nil
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		return nil
	}

	result.FromCache = true
	return &result
}

// storeCache 写入结果缓存
func (s *ReplaceService) storeCache(key string, result *Result) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode result for cache")
		return
	}

	if err := s.cache.Set(key, string(data), s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to store result in cache")
	}
}

// fileDigest 计算文件内容的SHA-256摘要
func fileDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// OutputPathFor 根据输出目录和后缀推导输出文件路径
func OutputPathFor(outputDir, inputPath, suffix string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(outputDir, name+suffix+ext)
}
