package taskqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-replacer/internal/cache"
	"github.com/fyerfyer/pdf-replacer/internal/engine"
	"github.com/fyerfyer/pdf-replacer/internal/mapping"
	"github.com/fyerfyer/pdf-replacer/internal/pdfdoc"
	"github.com/fyerfyer/pdf-replacer/internal/services"
)

// ReplaceHandler 替换任务处理器
// 消费队列中的pdf_replace和pdf_replace_batch任务
type ReplaceHandler struct {
	queue   Queue                      // 任务队列，用于回写结果
	status  *services.JobStatusManager // 任务状态管理器，可选
	loader  services.DocumentLoader    // 文档加载器
	writer  services.DocumentWriter    // 文档写出器
	cache   cache.Cache                // 结果缓存，可选
	logger  *logrus.Logger             // 日志记录器
	mu      sync.Mutex                 // 保护引擎缓存
	engines map[string]*cachedEngine   // 映射表路径到引擎的缓存
}

// cachedEngine 按映射表路径缓存的引擎及其构建告警
type cachedEngine struct {
	engine   *engine.Engine
	warnings []mapping.Warning
}

// HandlerOption 替换处理器配置选项
type HandlerOption func(*ReplaceHandler)

// NewReplaceHandler 创建替换任务处理器
func NewReplaceHandler(queue Queue, opts ...HandlerOption) *ReplaceHandler {
	h := &ReplaceHandler{
		queue:   queue,
		logger:  logrus.New(),
		engines: make(map[string]*cachedEngine),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.loader == nil {
		h.loader = pdfdoc.NewReader(h.logger)
	}
	if h.writer == nil {
		h.writer = pdfdoc.NewWriter(h.logger)
	}

	return h
}

// WithHandlerLogger 设置日志记录器
func WithHandlerLogger(logger *logrus.Logger) HandlerOption {
	return func(h *ReplaceHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithStatusManager 设置任务状态管理器
func WithStatusManager(status *services.JobStatusManager) HandlerOption {
	return func(h *ReplaceHandler) {
		h.status = status
	}
}

// WithResultCache 设置结果缓存
func WithResultCache(c cache.Cache) HandlerOption {
	return func(h *ReplaceHandler) {
		h.cache = c
	}
}

// WithDocumentLoader 设置文档加载器
func WithDocumentLoader(loader services.DocumentLoader) HandlerOption {
	return func(h *ReplaceHandler) {
		h.loader = loader
	}
}

// WithDocumentWriter 设置文档写出器
func WithDocumentWriter(writer services.DocumentWriter) HandlerOption {
	return func(h *ReplaceHandler) {
		h.writer = writer
	}
}

// GetTaskTypes 返回此处理器支持的任务类型
func (h *ReplaceHandler) GetTaskTypes() []TaskType {
	return []TaskType{TaskReplacePDF, TaskReplaceBatch}
}

// ProcessTask 处理任务
func (h *ReplaceHandler) ProcessTask(ctx context.Context, task *Task) error {
	switch task.Type {
	case TaskReplacePDF:
		return h.processReplace(ctx, task)
	case TaskReplaceBatch:
		return h.processBatch(ctx, task)
	default:
		return fmt.Errorf("unsupported task type: %s", task.Type)
	}
}

// processReplace 处理单文档替换任务
func (h *ReplaceHandler) processReplace(ctx context.Context, task *Task) error {
	var payload ReplacePayload
	if err := UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload.InputPath == "" || payload.OutputPath == "" || payload.MappingPath == "" {
		return fmt.Errorf("%w: input, output and mapping paths are required", ErrInvalidPayload)
	}

	h.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"input":   payload.InputPath,
	}).Info("Processing replace task")

	ce, err := h.engineFor(payload.MappingPath)
	if err != nil {
		return err
	}

	svc := h.newService(ce.engine)
	result, err := svc.ReplaceDocument(ctx, payload.InputPath, payload.OutputPath)
	if err != nil {
		return err
	}

	taskResult := ReplaceResult{
		DocumentID:   result.DocumentID,
		OutputPath:   result.OutputPath,
		Pages:        result.Pages,
		Replacements: result.Replacements,
		Detail:       result.Detail,
	}
	if err := h.queue.UpdateTaskStatus(ctx, task.ID, task.Status, taskResult, ""); err != nil {
		h.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to store replace result")
	}

	return nil
}

// processBatch 处理批量替换任务
func (h *ReplaceHandler) processBatch(ctx context.Context, task *Task) error {
	var payload BatchReplacePayload
	if err := UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(payload.InputPaths) == 0 || payload.MappingPath == "" {
		return fmt.Errorf("%w: input paths and mapping path are required", ErrInvalidPayload)
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"job_id":    payload.JobID,
		"documents": len(payload.InputPaths),
	}).Info("Processing batch replace task")

	ce, err := h.engineFor(payload.MappingPath)
	if err != nil {
		if h.status != nil && payload.JobID != "" {
			if markErr := h.status.MarkAsFailed(ctx, payload.JobID, err.Error()); markErr != nil {
				h.logger.WithError(markErr).Warn("Failed to mark job as failed")
			}
		}
		return err
	}

	if h.status != nil && payload.JobID != "" {
		if err := h.status.MarkAsProcessing(ctx, payload.JobID); err != nil {
			h.logger.WithError(err).WithField("job_id", payload.JobID).Warn("Failed to mark job as processing")
		}
	}

	svc := h.newService(ce.engine)
	batchOpts := []services.BatchOption{
		services.WithBatchLogger(h.logger),
	}
	if payload.OutputDir != "" {
		batchOpts = append(batchOpts, services.WithOutputDir(payload.OutputDir))
	}
	if payload.OutputSuffix != "" {
		batchOpts = append(batchOpts, services.WithOutputSuffix(payload.OutputSuffix))
	}
	if payload.Concurrency > 0 {
		batchOpts = append(batchOpts, services.WithConcurrency(payload.Concurrency))
	}

	coordinator := services.NewBatchCoordinator(svc, batchOpts...)
	summary := coordinator.Run(ctx, payload.InputPaths)

	if h.status != nil && payload.JobID != "" {
		if err := h.status.SaveOutcomes(ctx, payload.JobID, summary.Outcomes); err != nil {
			h.logger.WithError(err).WithField("job_id", payload.JobID).Warn("Failed to save document outcomes")
		}
		if err := h.status.MarkAsCompleted(ctx, payload.JobID, summary); err != nil {
			h.logger.WithError(err).WithField("job_id", payload.JobID).Warn("Failed to mark job as completed")
		}
	}

	taskResult := BatchReplaceResult{
		JobID:        payload.JobID,
		Total:        summary.Total,
		Succeeded:    summary.Succeeded,
		Failed:       summary.Failed,
		Canceled:     summary.Canceled,
		Replacements: summary.Replacements,
	}
	if err := h.queue.UpdateTaskStatus(ctx, task.ID, task.Status, taskResult, ""); err != nil {
		h.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to store batch result")
	}

	return nil
}

// newService 用处理器的依赖组装替换服务
func (h *ReplaceHandler) newService(eng *engine.Engine) *services.ReplaceService {
	opts := []services.ReplaceOption{
		services.WithLogger(h.logger),
	}
	if h.cache != nil {
		opts = append(opts, services.WithCache(h.cache))
	}
	return services.NewReplaceService(eng, h.loader, h.writer, opts...)
}

// engineFor 构建或复用指定映射表的替换引擎
// 同一映射表可能被同一worker的多个任务使用，按路径缓存
func (h *ReplaceHandler) engineFor(mappingPath string) (*cachedEngine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ce, ok := h.engines[mappingPath]; ok {
		return ce, nil
	}

	table, warnings, err := mapping.BuildFromFile(mappingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build mapping table from %s: %w", mappingPath, err)
	}

	for _, w := range warnings {
		h.logger.WithFields(logrus.Fields{
			"mapping": mappingPath,
			"warning": w.String(),
		}).Warn("Mapping table warning")
	}

	ce := &cachedEngine{
		engine:   engine.New(table),
		warnings: warnings,
	}
	h.engines[mappingPath] = ce
	return ce, nil
}
