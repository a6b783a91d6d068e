package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DocumentOutcome 批处理中单个文档的处理结局
// 文档之间互相隔离，一个文档失败不影响其他文档。
type DocumentOutcome struct {
	InputPath  string  // 输入文件路径
	OutputPath string  // 输出文件路径
	Result     *Result // 成功时的替换结果
	Err        error   // 失败或取消时的错误
}

// BatchSummary 批处理汇总
type BatchSummary struct {
	Total        int               // 输入文档总数
	Succeeded    int               // 成功文档数
	Failed       int               // 失败文档数
	Canceled     int               // 因取消未处理的文档数
	Replacements int               // 替换总次数
	Elapsed      time.Duration     // 总耗时
	Outcomes     []DocumentOutcome // 按输入顺序排列的逐文档结局
}

// BatchCoordinator 批处理协调器
// 用固定大小的worker池并发处理文档，结果经channel汇聚。
type BatchCoordinator struct {
	service     *ReplaceService // 替换服务
	concurrency int             // worker数量
	outputDir   string          // 输出目录
	suffix      string          // 输出文件名后缀
	outputPath  string          // 显式输出路径，只在单文档输入时有意义
	logger      *logrus.Logger  // 日志记录器
}

// BatchOption 批处理协调器配置选项
type BatchOption func(*BatchCoordinator)

// NewBatchCoordinator 创建批处理协调器
func NewBatchCoordinator(service *ReplaceService, opts ...BatchOption) *BatchCoordinator {
	c := &BatchCoordinator{
		service:     service,
		concurrency: 4,          // 默认worker数量
		outputDir:   "output",   // 默认输出目录
		suffix:      "_updated", // 默认输出后缀
		logger:      logrus.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithConcurrency 设置worker数量
func WithConcurrency(n int) BatchOption {
	return func(c *BatchCoordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithOutputDir 设置输出目录
func WithOutputDir(dir string) BatchOption {
	return func(c *BatchCoordinator) {
		if dir != "" {
			c.outputDir = dir
		}
	}
}

// WithOutputSuffix 设置输出文件名后缀
func WithOutputSuffix(suffix string) BatchOption {
	return func(c *BatchCoordinator) {
		c.suffix = suffix
	}
}

// WithOutputPath 指定唯一输入文档的输出路径
// 设置后覆盖目录加后缀的命名规则，多文档输入时不要使用
func WithOutputPath(path string) BatchOption {
	return func(c *BatchCoordinator) {
		c.outputPath = path
	}
}

// WithBatchLogger 设置日志记录器
func WithBatchLogger(logger *logrus.Logger) BatchOption {
	return func(c *BatchCoordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// indexedJob worker池内的任务项
type indexedJob struct {
	index int
	path  string
}

// indexedOutcome worker池内的结果项
type indexedOutcome struct {
	index   int
	outcome DocumentOutcome
}

// Run 并发处理全部输入文档并汇总结果
// 取消只在文档边界生效：已开始的文档会完整处理，
// 尚未开始的文档以取消错误记入结局。
func (c *BatchCoordinator) Run(ctx context.Context, inputs []string) BatchSummary {
	start := time.Now()

	summary := BatchSummary{
		Total:    len(inputs),
		Outcomes: make([]DocumentOutcome, len(inputs)),
	}
	if len(inputs) == 0 {
		summary.Elapsed = time.Since(start)
		return summary
	}

	c.logger.WithFields(logrus.Fields{
		"documents":   len(inputs),
		"concurrency": c.concurrency,
		"output_dir":  c.outputDir,
	}).Info("Starting batch replacement")

	dir := c.outputDir
	if c.outputPath != "" {
		dir = filepath.Dir(c.outputPath)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		// 输出目录建不出来，所有文档都会以同一个错误失败
		for i, path := range inputs {
			summary.Outcomes[i] = DocumentOutcome{
				InputPath:  path,
				OutputPath: c.resolveOutput(path),
				Err:        err,
			}
		}
		summary.Failed = len(inputs)
		summary.Elapsed = time.Since(start)
		return summary
	}

	jobs := make(chan indexedJob)
	results := make(chan indexedOutcome)

	var wg sync.WaitGroup
	workers := min(c.concurrency, len(inputs))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- indexedOutcome{
					index:   job.index,
					outcome: c.processOne(ctx, job.path),
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, path := range inputs {
			jobs <- indexedJob{index: i, path: path}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		summary.Outcomes[r.index] = r.outcome
		switch {
		case r.outcome.Err == nil:
			summary.Succeeded++
			summary.Replacements += r.outcome.Result.Replacements
		case errors.Is(r.outcome.Err, context.Canceled) || errors.Is(r.outcome.Err, context.DeadlineExceeded):
			summary.Canceled++
		default:
			summary.Failed++
		}
	}

	summary.Elapsed = time.Since(start)

	c.logger.WithFields(logrus.Fields{
		"total":        summary.Total,
		"succeeded":    summary.Succeeded,
		"failed":       summary.Failed,
		"canceled":     summary.Canceled,
		"replacements": summary.Replacements,
	}).Info("Batch replacement finished")

	return summary
}

// resolveOutput 计算文档的输出路径
func (c *BatchCoordinator) resolveOutput(inputPath string) string {
	if c.outputPath != "" {
		return c.outputPath
	}
	return OutputPathFor(c.outputDir, inputPath, c.suffix)
}

// processOne 处理单个文档，错误只记入结局不向上传播
func (c *BatchCoordinator) processOne(ctx context.Context, inputPath string) DocumentOutcome {
	outputPath := c.resolveOutput(inputPath)
	outcome := DocumentOutcome{
		InputPath:  inputPath,
		OutputPath: outputPath,
	}

	// 取消检查发生在文档边界
	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	result, err := c.service.ReplaceDocument(ctx, inputPath, outputPath)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"input": inputPath,
			"error": err.Error(),
		}).Error("Document replacement failed")
		outcome.Err = err
		return outcome
	}

	outcome.Result = result
	return outcome
}
