package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus 替换任务状态类型
type JobStatus string

const (
	// JobStatusPending 任务已创建，等待处理
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing 任务处理中
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted 任务处理完成
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed 任务处理失败
	JobStatusFailed JobStatus = "failed"
	// JobStatusCanceled 任务被取消
	JobStatusCanceled JobStatus = "canceled"
)

// ReplaceJob 批量替换任务数据模型
// 一个任务对应一张映射表和一批输入文档
type ReplaceJob struct {
	ID               string         `gorm:"primaryKey"`         // 任务ID，主键
	MappingPath      string         `gorm:"not null"`           // 映射表CSV路径
	MappingDigest    string         `gorm:"size:64;index"`      // 映射表内容指纹
	OutputDir        string         `gorm:"not null"`           // 输出目录
	Status           JobStatus      `gorm:"not null;index"`     // 任务状态
	DocumentCount    int            `gorm:"not null;default:0"` // 输入文档总数
	SucceededCount   int            `gorm:"not null;default:0"` // 成功文档数
	FailedCount      int            `gorm:"not null;default:0"` // 失败文档数
	ReplacementCount int            `gorm:"not null;default:0"` // 替换总次数
	Warnings         datatypes.JSON `gorm:"type:json"`          // 映射表告警，JSON数组
	Error            string         `gorm:"type:text"`          // 任务级错误信息
	CreatedAt        time.Time      `gorm:"not null;index"`     // 创建时间
	UpdatedAt        time.Time      `gorm:"not null"`           // 更新时间
	StartedAt        *time.Time     `gorm:""`                   // 开始时间
	FinishedAt       *time.Time     `gorm:""`                   // 结束时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (j *ReplaceJob) BeforeCreate(tx *gorm.DB) (err error) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	j.UpdatedAt = time.Now()
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (j *ReplaceJob) BeforeUpdate(tx *gorm.DB) (err error) {
	j.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (ReplaceJob) TableName() string {
	return "replace_jobs"
}

// DocumentResult 单个文档的替换结果模型
// 一条记录对应任务内的一个输入文档，失败互相隔离
type DocumentResult struct {
	ID           uint           `gorm:"primaryKey;autoIncrement"` // 主键ID
	JobID        string         `gorm:"not null;index"`           // 所属任务ID
	DocumentID   string         `gorm:"not null;index"`           // 文档ID
	InputPath    string         `gorm:"not null"`                 // 输入文件路径
	OutputPath   string         `gorm:""`                         // 输出文件路径
	Status       JobStatus      `gorm:"not null;index"`           // 文档处理状态
	Pages        int            `gorm:"not null;default:0"`       // 页数
	Replacements int            `gorm:"not null;default:0"`       // 替换次数
	Error        string         `gorm:"type:text"`                // 错误信息
	Detail       datatypes.JSON `gorm:"type:json"`                // 逐键替换计数，JSON对象
	CreatedAt    time.Time      `gorm:"not null"`                 // 创建时间
	UpdatedAt    time.Time      `gorm:"not null"`                 // 更新时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (r *DocumentResult) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (r *DocumentResult) BeforeUpdate(tx *gorm.DB) (err error) {
	r.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (DocumentResult) TableName() string {
	return "document_results"
}
