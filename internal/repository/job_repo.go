package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fyerfyer/pdf-replacer/internal/database"
	"github.com/fyerfyer/pdf-replacer/internal/models"
)

// jobRepo 替换任务仓储实现
type jobRepo struct {
	db *gorm.DB // 数据库连接
}

// NewJobRepository 创建任务仓储实例
func NewJobRepository() JobRepository {
	return &jobRepo{
		db: database.MustDB(),
	}
}

// NewJobRepositoryWithDB 使用指定的数据库连接创建任务仓储实例
func NewJobRepositoryWithDB(db *gorm.DB) JobRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &jobRepo{
		db: db,
	}
}

// WithContext 创建带有上下文的仓储
func (r *jobRepo) WithContext(ctx context.Context) JobRepository {
	return &jobRepo{
		db: r.db.WithContext(ctx),
	}
}

// CreateJob 创建任务记录
func (r *jobRepo) CreateJob(job *models.ReplaceJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	return r.db.Create(job).Error
}

// GetJob 根据ID获取任务
func (r *jobRepo) GetJob(id string) (*models.ReplaceJob, error) {
	var job models.ReplaceJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
		}
		return nil, err
	}
	return &job, nil
}

// ListJobs 列出任务，支持分页和状态筛选
func (r *jobRepo) ListJobs(offset, limit int, status models.JobStatus) ([]*models.ReplaceJob, int64, error) {
	var jobs []*models.ReplaceJob
	var total int64

	query := r.db.Model(&models.ReplaceJob{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

// UpdateJob 更新任务记录
func (r *jobRepo) UpdateJob(job *models.ReplaceJob) error {
	result := r.db.Save(job)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrJobNotFound, job.ID)
	}
	return nil
}

// UpdateJobStatus 更新任务状态与错误信息
func (r *jobRepo) UpdateJobStatus(id string, status models.JobStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	switch status {
	case models.JobStatusProcessing:
		updates["started_at"] = time.Now()
	case models.JobStatusCompleted, models.JobStatusFailed, models.JobStatusCanceled:
		updates["finished_at"] = time.Now()
	}

	result := r.db.Model(&models.ReplaceJob{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
	}
	return nil
}

// DeleteJob 删除任务及其文档结果
func (r *jobRepo) DeleteJob(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.DocumentResult{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.ReplaceJob{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
		}
		return nil
	})
}

// SaveResult 保存单个文档的处理结果
func (r *jobRepo) SaveResult(result *models.DocumentResult) error {
	return r.db.Create(result).Error
}

// SaveResults 批量保存文档处理结果
func (r *jobRepo) SaveResults(results []*models.DocumentResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.Create(&results).Error
}

// GetResults 获取任务的全部文档结果
func (r *jobRepo) GetResults(jobID string) ([]*models.DocumentResult, error) {
	var results []*models.DocumentResult
	err := r.db.Where("job_id = ?", jobID).
		Order("id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CountResults 按状态统计任务的文档结果数量
func (r *jobRepo) CountResults(jobID string, status models.JobStatus) (int64, error) {
	var count int64
	query := r.db.Model(&models.DocumentResult{}).Where("job_id = ?", jobID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}
