package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-replacer/internal/models"
	"github.com/fyerfyer/pdf-replacer/internal/repository"
)

// JobStatusManager 任务状态管理器
// 负责管理替换任务的生命周期状态
type JobStatusManager struct {
	repo   repository.JobRepository // 任务仓储接口
	logger *logrus.Logger           // 日志记录器
	mu     sync.Mutex               // 互斥锁，保证状态转换的原子性
}

// NewJobStatusManager 创建任务状态管理器
func NewJobStatusManager(repo repository.JobRepository, logger *logrus.Logger) *JobStatusManager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &JobStatusManager{
		repo:   repo,
		logger: logger,
	}
}

// CreateJob 创建待处理的任务记录
func (m *JobStatusManager) CreateJob(ctx context.Context, job *models.ReplaceJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"documents": job.DocumentCount,
	}).Info("Creating replace job")

	job.Status = models.JobStatusPending
	return m.repo.WithContext(ctx).CreateJob(job)
}

// MarkAsProcessing 将任务标记为处理中状态
func (m *JobStatusManager) MarkAsProcessing(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, err := m.repo.WithContext(ctx).GetJob(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	if err := m.validateTransition(job.Status, models.JobStatusProcessing); err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}

	m.logger.WithField("job_id", jobID).Info("Marking job as processing")
	return m.repo.WithContext(ctx).UpdateJobStatus(jobID, models.JobStatusProcessing, "")
}

// MarkAsCompleted 将任务标记为处理完成状态并落盘汇总数字
func (m *JobStatusManager) MarkAsCompleted(ctx context.Context, jobID string, summary BatchSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, err := m.repo.WithContext(ctx).GetJob(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	if err := m.validateTransition(job.Status, models.JobStatusCompleted); err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}

	m.logger.WithFields(logrus.Fields{
		"job_id":       jobID,
		"succeeded":    summary.Succeeded,
		"failed":       summary.Failed,
		"replacements": summary.Replacements,
	}).Info("Marking job as completed")

	// 状态、结束时间和汇总数字必须落在同一次写入里，
	// 分两次写会让Save用旧快照覆盖掉finished_at
	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.FinishedAt = &now
	job.SucceededCount = summary.Succeeded
	job.FailedCount = summary.Failed
	job.ReplacementCount = summary.Replacements
	return m.repo.WithContext(ctx).UpdateJob(job)
}

// MarkAsFailed 将任务标记为处理失败状态
func (m *JobStatusManager) MarkAsFailed(ctx context.Context, jobID string, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.repo.WithContext(ctx).GetJob(jobID); err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"job_id": jobID,
		"error":  errorMsg,
	}).Error("Marking job as failed")

	return m.repo.WithContext(ctx).UpdateJobStatus(jobID, models.JobStatusFailed, errorMsg)
}

// MarkAsCanceled 将任务标记为已取消状态
func (m *JobStatusManager) MarkAsCanceled(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, err := m.repo.WithContext(ctx).GetJob(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	if err := m.validateTransition(job.Status, models.JobStatusCanceled); err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}

	m.logger.WithField("job_id", jobID).Info("Marking job as canceled")
	return m.repo.WithContext(ctx).UpdateJobStatus(jobID, models.JobStatusCanceled, "")
}

// GetJob 获取完整的任务对象
func (m *JobStatusManager) GetJob(ctx context.Context, jobID string) (*models.ReplaceJob, error) {
	return m.repo.WithContext(ctx).GetJob(jobID)
}

// ListJobs 获取任务列表
func (m *JobStatusManager) ListJobs(ctx context.Context, offset, limit int, status models.JobStatus) ([]*models.ReplaceJob, int64, error) {
	return m.repo.WithContext(ctx).ListJobs(offset, limit, status)
}

// DeleteJob 删除任务及其全部文档结果
func (m *JobStatusManager) DeleteJob(ctx context.Context, jobID string) error {
	m.logger.WithField("job_id", jobID).Info("Deleting replace job")
	return m.repo.WithContext(ctx).DeleteJob(jobID)
}

// GetResults 获取任务的全部文档结果
func (m *JobStatusManager) GetResults(ctx context.Context, jobID string) ([]*models.DocumentResult, error) {
	return m.repo.WithContext(ctx).GetResults(jobID)
}

// SaveOutcomes 把批处理逐文档结局落盘
func (m *JobStatusManager) SaveOutcomes(ctx context.Context, jobID string, outcomes []DocumentOutcome) error {
	results := make([]*models.DocumentResult, 0, len(outcomes))
	for _, o := range outcomes {
		record := &models.DocumentResult{
			JobID:      jobID,
			InputPath:  o.InputPath,
			OutputPath: o.OutputPath,
		}

		if o.Err != nil {
			if errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded) {
				record.Status = models.JobStatusCanceled
			} else {
				record.Status = models.JobStatusFailed
			}
			record.Error = o.Err.Error()
		} else {
			record.Status = models.JobStatusCompleted
			record.DocumentID = o.Result.DocumentID
			record.Pages = o.Result.Pages
			record.Replacements = o.Result.Replacements
		}

		results = append(results, record)
	}

	return m.repo.WithContext(ctx).SaveResults(results)
}

// validateTransition 验证状态转换的有效性
func (m *JobStatusManager) validateTransition(from, to models.JobStatus) error {
	validTransitions := map[models.JobStatus][]models.JobStatus{
		models.JobStatusPending: {
			models.JobStatusProcessing,
			models.JobStatusCanceled,
			models.JobStatusFailed,
		},
		models.JobStatusProcessing: {
			models.JobStatusCompleted,
			models.JobStatusFailed,
			models.JobStatusCanceled,
		},
		// 终态，失败任务允许重试
		models.JobStatusCompleted: {},
		models.JobStatusFailed:    {models.JobStatusProcessing},
		models.JobStatusCanceled:  {},
	}

	for _, validTo := range validTransitions[from] {
		if validTo == to {
			return nil
		}
	}

	return fmt.Errorf("%w: cannot move from %s to %s", models.ErrInvalidJobStatus, from, to)
}
