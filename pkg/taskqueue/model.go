package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskReplacePDF 单文档替换任务
	TaskReplacePDF TaskType = "pdf_replace"
	// TaskReplaceBatch 批量替换任务
	TaskReplaceBatch TaskType = "pdf_replace_batch"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	JobID       string          `json:"job_id"`       // 关联的替换任务ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷数据，不同任务类型对应不同结构
	Result      json.RawMessage `json:"result"`       // 任务结果数据，不同任务类型对应不同结构
	Error       string          `json:"error"`        // 错误信息（如果处理失败）
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	Attempts    int             `json:"attempts"`     // 尝试次数
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// ReplacePayload 单文档替换任务载荷
type ReplacePayload struct {
	JobID       string `json:"job_id"`       // 替换任务ID
	InputPath   string `json:"input_path"`   // 输入PDF路径
	OutputPath  string `json:"output_path"`  // 输出PDF路径
	MappingPath string `json:"mapping_path"` // 映射表CSV路径
}

// ReplaceResult 单文档替换任务结果
type ReplaceResult struct {
	DocumentID   string         `json:"document_id"`  // 文档ID
	OutputPath   string         `json:"output_path"`  // 输出文件路径
	Pages        int            `json:"pages"`        // 页数
	Replacements int            `json:"replacements"` // 替换总次数
	Detail       map[string]int `json:"detail"`       // 逐键替换计数
	Error        string         `json:"error"`        // 错误信息（如果有）
}

// BatchReplacePayload 批量替换任务载荷
type BatchReplacePayload struct {
	JobID        string   `json:"job_id"`       // 替换任务ID
	InputPaths   []string `json:"input_paths"`  // 输入PDF路径列表
	OutputDir    string   `json:"output_dir"`   // 输出目录
	OutputSuffix string   `json:"output_suffix"` // 输出文件名后缀
	MappingPath  string   `json:"mapping_path"` // 映射表CSV路径
	Concurrency  int      `json:"concurrency"`  // 并发worker数量
}

// BatchReplaceResult 批量替换任务结果
type BatchReplaceResult struct {
	JobID        string `json:"job_id"`       // 替换任务ID
	Total        int    `json:"total"`        // 输入文档总数
	Succeeded    int    `json:"succeeded"`    // 成功文档数
	Failed       int    `json:"failed"`       // 失败文档数
	Canceled     int    `json:"canceled"`     // 取消文档数
	Replacements int    `json:"replacements"` // 替换总次数
	Error        string `json:"error"`        // 任务级错误信息（如果有）
}
