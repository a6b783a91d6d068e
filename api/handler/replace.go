package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-replacer/api/middleware"
	"github.com/fyerfyer/pdf-replacer/api/model"
	"github.com/fyerfyer/pdf-replacer/internal/cache"
	"github.com/fyerfyer/pdf-replacer/internal/engine"
	"github.com/fyerfyer/pdf-replacer/internal/mapping"
	"github.com/fyerfyer/pdf-replacer/internal/models"
	"github.com/fyerfyer/pdf-replacer/internal/pdfdoc"
	"github.com/fyerfyer/pdf-replacer/internal/services"
)

// ReplaceHandler 处理单文档同步替换的API请求
type ReplaceHandler struct {
	loader services.DocumentLoader // 文档加载器
	writer services.DocumentWriter // 文档写出器
	cache  cache.Cache             // 结果缓存，可选
	logger *logrus.Logger          // 日志记录器
}

// ReplaceHandlerOption 替换处理器配置选项
type ReplaceHandlerOption func(*ReplaceHandler)

// NewReplaceHandler 创建新的替换处理器
func NewReplaceHandler(opts ...ReplaceHandlerOption) *ReplaceHandler {
	h := &ReplaceHandler{
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

// WithReplaceLoader 设置文档加载器
func WithReplaceLoader(loader services.DocumentLoader) ReplaceHandlerOption {
	return func(h *ReplaceHandler) {
		h.loader = loader
	}
}

// WithReplaceWriter 设置文档写出器
func WithReplaceWriter(writer services.DocumentWriter) ReplaceHandlerOption {
	return func(h *ReplaceHandler) {
		h.writer = writer
	}
}

// WithReplaceCache 设置结果缓存
func WithReplaceCache(c cache.Cache) ReplaceHandlerOption {
	return func(h *ReplaceHandler) {
		h.cache = c
	}
}

// Replace 同步执行单文档替换
// POST /api/replace
func (h *ReplaceHandler) Replace(c *gin.Context) {
	var req model.ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid replace request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

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

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = services.OutputPathFor(filepath.Dir(req.InputPath), req.InputPath, "_updated")
	}

	svcOpts := []services.ReplaceOption{services.WithLogger(h.logger)}
	if h.cache != nil {
		svcOpts = append(svcOpts, services.WithCache(h.cache))
	}
	svc := services.NewReplaceService(engine.New(table), h.loader, h.writer, svcOpts...)

	result, err := svc.ReplaceDocument(c.Request.Context(), req.InputPath, outputPath)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
			"input": req.InputPath,
		}).Error("Document replacement failed")

		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrDocumentRead) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, model.NewErrorResponse(status, "文档替换失败: "+err.Error()))
		return
	}

	warningTexts := make([]string, 0, len(warnings))
	for _, w := range warnings {
		warningTexts = append(warningTexts, w.String())
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewReplaceResponse(result, warningTexts)))
}
