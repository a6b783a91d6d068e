package repository

import (
	"context"

	"github.com/fyerfyer/pdf-replacer/internal/models"
)

// JobRepository 替换任务仓储接口
// 负责任务与逐文档结果的存储和检索
type JobRepository interface {
	// CreateJob 创建任务记录
	CreateJob(job *models.ReplaceJob) error

	// GetJob 根据ID获取任务
	GetJob(id string) (*models.ReplaceJob, error)

	// ListJobs 列出任务，支持分页和状态筛选
	ListJobs(offset, limit int, status models.JobStatus) ([]*models.ReplaceJob, int64, error)

	// UpdateJob 更新任务记录
	UpdateJob(job *models.ReplaceJob) error

	// UpdateJobStatus 更新任务状态与错误信息
	UpdateJobStatus(id string, status models.JobStatus, errorMsg string) error

	// DeleteJob 删除任务及其文档结果
	DeleteJob(id string) error

	// SaveResult 保存单个文档的处理结果
	SaveResult(result *models.DocumentResult) error

	// SaveResults 批量保存文档处理结果
	SaveResults(results []*models.DocumentResult) error

	// GetResults 获取任务的全部文档结果
	GetResults(jobID string) ([]*models.DocumentResult, error)

	// CountResults 按状态统计任务的文档结果数量
	CountResults(jobID string, status models.JobStatus) (int64, error)

	// WithContext 创建带有上下文的仓储
	WithContext(ctx context.Context) JobRepository
}
