package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/fyerfyer/pdf-replacer/api/middleware"
	"github.com/fyerfyer/pdf-replacer/api/model"
	"github.com/fyerfyer/pdf-replacer/internal/cache"
	"github.com/fyerfyer/pdf-replacer/internal/engine"
	"github.com/fyerfyer/pdf-replacer/internal/mapping"
	"github.com/fyerfyer/pdf-replacer/internal/models"
	"github.com/fyerfyer/pdf-replacer/internal/pdfdoc"
	"github.com/fyerfyer/pdf-replacer/internal/services"
	"github.com/fyerfyer/pdf-replacer/pkg/taskqueue"
)

const (
	defaultOutputDir   = "output"   // 默认输出目录
	defaultSuffix      = "_updated" // 默认输出文件名后缀
	defaultConcurrency = 4          // 默认并发worker数量
)

// JobHandler 处理批量替换任务的API请求
type JobHandler struct {
	status *services.JobStatusManager // 任务状态管理器
	queue  taskqueue.Queue            // 任务队列，可选
	loader services.DocumentLoader    // 文档加载器
	writer services.DocumentWriter    // 文档写出器
	cache  cache.Cache                // 结果缓存，可选
	logger *logrus.Logger             // 日志记录器
}

// JobHandlerOption 任务处理器配置选项
type JobHandlerOption func(*JobHandler)

// NewJobHandler 创建新的任务处理器
// queue为nil时任务在本进程后台执行，否则提交到任务队列
func NewJobHandler(status *services.JobStatusManager, queue taskqueue.Queue, opts ...JobHandlerOption) *JobHandler {
	h := &JobHandler{
		status: status,
		queue:  queue,
		logger: middleware.GetLogger(),
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

// WithJobLoader 设置文档加载器
func WithJobLoader(loader services.DocumentLoader) JobHandlerOption {
	return func(h *JobHandler) {
		h.loader = loader
	}
}

// WithJobWriter 设置文档写出器
func WithJobWriter(writer services.DocumentWriter) JobHandlerOption {
	return func(h *JobHandler) {
		h.writer = writer
	}
}

// WithJobCache 设置结果缓存
func WithJobCache(c cache.Cache) JobHandlerOption {
	return func(h *JobHandler) {
		h.cache = c
	}
}

// CreateJob 创建批量替换任务
// POST /api/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req model.JobCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid job create request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	// 映射表在提交时即加载，错误立刻反馈给调用方
	table, warnings, err := mapping.BuildFromFile(req.MappingPath)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":   err.Error(),
			"mapping": req.MappingPath,
		}).Error("Failed to build mapping table")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"映射表加载失败: "+err.Error(),
		))
		return
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}
	suffix := req.OutputSuffix
	if suffix == "" {
		suffix = defaultSuffix
	}
	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	warningsJSON, err := taskqueue.MarshalPayload(warnings)
	if err != nil {
		warningsJSON = []byte("[]")
	}

	job := &models.ReplaceJob{
		ID:            uuid.New().String(),
		MappingPath:   req.MappingPath,
		MappingDigest: table.Fingerprint(),
		OutputDir:     outputDir,
		DocumentCount: len(req.InputPaths),
		Warnings:      datatypes.JSON(warningsJSON),
	}

	if err := h.status.CreateJob(c.Request.Context(), job); err != nil {
		h.logger.WithError(err).Error("Failed to create job record")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"创建任务失败",
		))
		return
	}

	resp := model.JobCreateResponse{
		JobID:  job.ID,
		Status: string(models.JobStatusPending),
	}

	if h.queue != nil {
		payload := &taskqueue.BatchReplacePayload{
			JobID:        job.ID,
			InputPaths:   req.InputPaths,
			OutputDir:    outputDir,
			OutputSuffix: suffix,
			MappingPath:  req.MappingPath,
			Concurrency:  concurrency,
		}

		taskID, err := h.queue.Enqueue(c.Request.Context(), taskqueue.TaskReplaceBatch, job.ID, payload)
		if err != nil {
			h.logger.WithError(err).WithField("job_id", job.ID).Error("Failed to enqueue batch task")

			if markErr := h.status.MarkAsFailed(c.Request.Context(), job.ID, "enqueue failed: "+err.Error()); markErr != nil {
				h.logger.WithError(markErr).Warn("Failed to mark job as failed")
			}

			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
				http.StatusInternalServerError,
				"任务入队失败",
			))
			return
		}
		resp.TaskID = taskID
	} else {
		// 无队列时在本进程后台执行
		go h.runBatch(job.ID, table, req.InputPaths, outputDir, suffix, concurrency)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// runBatch 在后台执行批量替换并落盘结果
func (h *JobHandler) runBatch(jobID string, table *mapping.Table, inputs []string, outputDir, suffix string, concurrency int) {
	ctx := context.Background()

	if err := h.status.MarkAsProcessing(ctx, jobID); err != nil {
		h.logger.WithError(err).WithField("job_id", jobID).Error("Failed to mark job as processing")
		return
	}

	svcOpts := []services.ReplaceOption{services.WithLogger(h.logger)}
	if h.cache != nil {
		svcOpts = append(svcOpts, services.WithCache(h.cache))
	}
	svc := services.NewReplaceService(engine.New(table), h.loader, h.writer, svcOpts...)

	coordinator := services.NewBatchCoordinator(svc,
		services.WithOutputDir(outputDir),
		services.WithOutputSuffix(suffix),
		services.WithConcurrency(concurrency),
		services.WithBatchLogger(h.logger),
	)

	summary := coordinator.Run(ctx, inputs)

	if err := h.status.SaveOutcomes(ctx, jobID, summary.Outcomes); err != nil {
		h.logger.WithError(err).WithField("job_id", jobID).Error("Failed to save document outcomes")
	}
	if err := h.status.MarkAsCompleted(ctx, jobID, summary); err != nil {
		h.logger.WithError(err).WithField("job_id", jobID).Error("Failed to mark job as completed")
	}
}

// GetJob 获取任务状态和逐文档结果
// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的任务ID"))
		return
	}

	job, err := h.status.GetJob(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "任务未找到"))
			return
		}

		h.logger.WithError(err).WithField("job_id", req.ID).Error("Failed to get job")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取任务失败",
		))
		return
	}

	records, err := h.status.GetResults(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithError(err).WithField("job_id", req.ID).Warn("Failed to get job results")
		// 结果查询失败时仍返回任务信息
	}

	results := make([]model.DocumentResultInfo, 0, len(records))
	for _, r := range records {
		results = append(results, model.NewDocumentResultInfo(r))
	}

	resp := model.JobStatusResponse{
		JobInfo: model.NewJobInfo(job),
		Results: results,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListJobs 获取任务列表
// GET /api/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req model.JobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	page := req.GetPage()
	pageSize := req.GetPageSize()
	offset := (page - 1) * pageSize

	jobs, total, err := h.status.ListJobs(c.Request.Context(), offset, pageSize, models.JobStatus(req.Status))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list jobs")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取任务列表失败",
		))
		return
	}

	jobInfos := make([]model.JobInfo, 0, len(jobs))
	for _, job := range jobs {
		jobInfos = append(jobInfos, model.NewJobInfo(job))
	}

	resp := model.JobListResponse{
		Total:    int(total),
		Page:     page,
		PageSize: pageSize,
		Jobs:     jobInfos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DeleteJob 删除任务及其文档结果
// DELETE /api/jobs/:id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	var req model.JobDeleteRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的任务ID"))
		return
	}

	if err := h.status.DeleteJob(c.Request.Context(), req.ID); err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "任务未找到"))
			return
		}

		h.logger.WithError(err).WithField("job_id", req.ID).Error("Failed to delete job")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"删除任务失败",
		))
		return
	}

	resp := model.JobDeleteResponse{
		Success: true,
		JobID:   req.ID,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetJobReport 生成任务报告
// GET /api/jobs/:id/report
func (h *JobHandler) GetJobReport(c *gin.Context) {
	var uriReq model.JobStatusRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的任务ID"))
		return
	}

	var req model.JobReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的报告格式"))
		return
	}

	job, err := h.status.GetJob(c.Request.Context(), uriReq.ID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "任务未找到"))
			return
		}

		h.logger.WithError(err).WithField("job_id", uriReq.ID).Error("Failed to get job for report")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取任务失败",
		))
		return
	}

	records, err := h.status.GetResults(c.Request.Context(), uriReq.ID)
	if err != nil {
		h.logger.WithError(err).WithField("job_id", uriReq.ID).Error("Failed to get job results for report")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取任务结果失败",
		))
		return
	}

	var warnings []mapping.Warning
	if len(job.Warnings) > 0 {
		if err := taskqueue.UnmarshalPayload([]byte(job.Warnings), &warnings); err != nil {
			h.logger.WithError(err).Warn("Failed to decode job warnings")
		}
	}

	summary := services.SummaryFromRecords(records)

	switch services.ReportFormat(req.Format) {
	case services.ReportHTML:
		c.Data(http.StatusOK, "text/html; charset=utf-8", services.HTMLReport(summary, warnings))
	default:
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(services.MarkdownReport(summary, warnings)))
	}
}
