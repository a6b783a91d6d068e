package model

import (
	"mime/multipart"
)

// 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// FileUploadRequest 文件上传请求
// 接受待处理的PDF文档或映射表CSV文件
type FileUploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"` // 文件对象
}

// FileDeleteRequest 文件删除请求
type FileDeleteRequest struct {
	ID string `uri:"id" binding:"required"` // 文件ID
}

// ReplaceRequest 单文档同步替换请求
type ReplaceRequest struct {
	InputPath   string `json:"input_path" binding:"required"`   // 输入PDF路径
	OutputPath  string `json:"output_path" binding:"omitempty"` // 输出PDF路径，缺省时按后缀规则推导
	MappingPath string `json:"mapping_path" binding:"required"` // 映射表CSV路径
}

// JobCreateRequest 批量替换任务创建请求
type JobCreateRequest struct {
	InputPaths   []string `json:"input_paths" binding:"required,min=1"`      // 输入PDF路径列表
	MappingPath  string   `json:"mapping_path" binding:"required"`           // 映射表CSV路径
	OutputDir    string   `json:"output_dir" binding:"omitempty"`            // 输出目录
	OutputSuffix string   `json:"output_suffix" binding:"omitempty"`         // 输出文件名后缀
	Concurrency  int      `json:"concurrency" binding:"omitempty,min=1"`     // 并发worker数量
}

// JobStatusRequest 任务状态查询请求
type JobStatusRequest struct {
	ID string `uri:"id" binding:"required"` // 任务ID
}

// JobListRequest 任务列表请求
type JobListRequest struct {
	PaginationRequest
	Status string `form:"status" json:"status" binding:"omitempty"` // 任务状态过滤
}

// JobDeleteRequest 任务删除请求
type JobDeleteRequest struct {
	ID string `uri:"id" binding:"required"` // 任务ID
}

// JobReportRequest 任务报告请求
type JobReportRequest struct {
	Format string `form:"format" json:"format" binding:"omitempty,oneof=markdown html"` // 报告格式
}
