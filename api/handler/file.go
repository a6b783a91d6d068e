package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-replacer/api/middleware"
	"github.com/fyerfyer/pdf-replacer/api/model"
	"github.com/fyerfyer/pdf-replacer/pkg/storage"
)

// FileHandler 处理文件相关的API请求
// 接收待替换的PDF文档和映射表CSV文件
type FileHandler struct {
	fileStorage storage.Storage // 文件存储服务
	logger      *logrus.Logger  // 日志记录器
}

// NewFileHandler 创建新的文件处理器
func NewFileHandler(fileStorage storage.Storage) *FileHandler {
	return &FileHandler{
		fileStorage: fileStorage,
		logger:      middleware.GetLogger(),
	}
}

// UploadFile 处理文件上传请求
// POST /api/files
func (h *FileHandler) UploadFile(c *gin.Context) {
	var req model.FileUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Invalid file upload request")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	filename := req.File.Filename
	ext := filepath.Ext(filename)
	if !isValidFileType(ext) {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"不支持的文件类型，仅支持 .pdf 和 .csv",
		))
		return
	}

	file, err := req.File.Open()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to open uploaded file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"无法打开上传的文件",
		))
		return
	}
	defer file.Close()

	fileInfo, err := h.fileStorage.Save(file, filename)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to save file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"保存文件失败",
		))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"file_id":  fileInfo.ID,
		"filename": fileInfo.Name,
		"path":     fileInfo.Path,
		"size":     fileInfo.Size,
	}).Info("File uploaded successfully")

	resp := model.FileUploadResponse{
		FileID:   fileInfo.ID,
		FileName: fileInfo.Name,
		Path:     fileInfo.Path,
		Size:     fileInfo.Size,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListFiles 获取文件列表
// GET /api/files
func (h *FileHandler) ListFiles(c *gin.Context) {
	files, err := h.fileStorage.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list files")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取文件列表失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(files))
}

// DeleteFile 删除文件
// DELETE /api/files/:id
func (h *FileHandler) DeleteFile(c *gin.Context) {
	var req model.FileDeleteRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的文件ID"))
		return
	}

	if err := h.fileStorage.Delete(req.ID); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":   err.Error(),
			"file_id": req.ID,
		}).Error("Failed to delete file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"删除文件失败",
		))
		return
	}

	h.logger.WithField("file_id", req.ID).Info("File deleted successfully")

	resp := model.FileDeleteResponse{
		Success: true,
		FileID:  req.ID,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// isValidFileType 检查文件类型是否有效
func isValidFileType(ext string) bool {
	validTypes := map[string]bool{
		".pdf": true,
		".csv": true,
	}
	return validTypes[ext]
}
