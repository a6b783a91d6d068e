package model

import (
	"time"

	"github.com/fyerfyer/pdf-replacer/internal/models"
	"github.com/fyerfyer/pdf-replacer/internal/services"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// FileUploadResponse 文件上传响应
type FileUploadResponse struct {
	FileID   string `json:"file_id"`  // 文件ID
	FileName string `json:"filename"` // 文件名
	Path     string `json:"path"`     // 存储路径
	Size     int64  `json:"size"`     // 文件大小（字节）
}

// FileDeleteResponse 文件删除响应
type FileDeleteResponse struct {
	Success bool   `json:"success"` // 是否成功
	FileID  string `json:"file_id"` // 文件ID
}

// ReplaceResponse 单文档替换响应
type ReplaceResponse struct {
	DocumentID   string         `json:"document_id"`  // 文档ID
	InputPath    string         `json:"input_path"`   // 输入文件路径
	OutputPath   string         `json:"output_path"`  // 输出文件路径
	Pages        int            `json:"pages"`        // 页数
	Replacements int            `json:"replacements"` // 替换总次数
	Detail       map[string]int `json:"detail"`       // 逐键替换计数
	Warnings     []string       `json:"warnings,omitempty"` // 映射表构建告警
}

// NewReplaceResponse 从替换结果构建响应
func NewReplaceResponse(result *services.Result, warnings []string) *ReplaceResponse {
	return &ReplaceResponse{
		DocumentID:   result.DocumentID,
		InputPath:    result.InputPath,
		OutputPath:   result.OutputPath,
		Pages:        result.Pages,
		Replacements: result.Replacements,
		Detail:       result.Detail,
		Warnings:     warnings,
	}
}

// JobInfo 替换任务信息
type JobInfo struct {
	ID               string     `json:"id"`                    // 任务ID
	Status           string     `json:"status"`                // 任务状态
	MappingPath      string     `json:"mapping_path"`          // 映射表路径
	OutputDir        string     `json:"output_dir"`            // 输出目录
	DocumentCount    int        `json:"document_count"`        // 文档总数
	SucceededCount   int        `json:"succeeded_count"`       // 成功文档数
	FailedCount      int        `json:"failed_count"`          // 失败文档数
	ReplacementCount int        `json:"replacement_count"`     // 替换总次数
	Error            string     `json:"error,omitempty"`       // 错误信息（如果有）
	CreatedAt        time.Time  `json:"created_at"`            // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`            // 更新时间
	StartedAt        *time.Time `json:"started_at,omitempty"`  // 开始处理时间
	FinishedAt       *time.Time `json:"finished_at,omitempty"` // 完成时间
}

// NewJobInfo 从任务模型构建任务信息
func NewJobInfo(job *models.ReplaceJob) JobInfo {
	return JobInfo{
		ID:               job.ID,
		Status:           string(job.Status),
		MappingPath:      job.MappingPath,
		OutputDir:        job.OutputDir,
		DocumentCount:    job.DocumentCount,
		SucceededCount:   job.SucceededCount,
		FailedCount:      job.FailedCount,
		ReplacementCount: job.ReplacementCount,
		Error:            job.Error,
		CreatedAt:        job.CreatedAt,
		UpdatedAt:        job.UpdatedAt,
		StartedAt:        job.StartedAt,
		FinishedAt:       job.FinishedAt,
	}
}

// JobCreateResponse 任务创建响应
type JobCreateResponse struct {
	JobID  string `json:"job_id"`            // 任务ID
	Status string `json:"status"`            // 任务状态
	TaskID string `json:"task_id,omitempty"` // 关联的队列任务ID（异步模式）
}

// DocumentResultInfo 逐文档处理结果
type DocumentResultInfo struct {
	DocumentID   string `json:"document_id"`     // 文档ID
	InputPath    string `json:"input_path"`      // 输入文件路径
	OutputPath   string `json:"output_path"`     // 输出文件路径
	Status       string `json:"status"`          // 处理状态
	Pages        int    `json:"pages"`           // 页数
	Replacements int    `json:"replacements"`    // 替换次数
	Error        string `json:"error,omitempty"` // 错误信息（如果有）
}

// NewDocumentResultInfo 从结果模型构建结果信息
func NewDocumentResultInfo(r *models.DocumentResult) DocumentResultInfo {
	return DocumentResultInfo{
		DocumentID:   r.DocumentID,
		InputPath:    r.InputPath,
		OutputPath:   r.OutputPath,
		Status:       string(r.Status),
		Pages:        r.Pages,
		Replacements: r.Replacements,
		Error:        r.Error,
	}
}

// JobStatusResponse 任务状态查询响应
type JobStatusResponse struct {
	JobInfo
	Results []DocumentResultInfo `json:"results"` // 逐文档结果
}

// JobListResponse 任务列表响应
type JobListResponse struct {
	Total    int       `json:"total"`     // 总数量
	Page     int       `json:"page"`      // 当前页码
	PageSize int       `json:"page_size"` // 每页大小
	Jobs     []JobInfo `json:"jobs"`      // 任务列表
}

// JobDeleteResponse 任务删除响应
type JobDeleteResponse struct {
	Success bool   `json:"success"` // 是否成功
	JobID   string `json:"job_id"`  // 任务ID
}
