package models

import "errors"

var (
	// ErrJobNotFound 任务不存在错误
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidJobStatus 无效的任务状态错误
	ErrInvalidJobStatus = errors.New("invalid job status")

	// ErrDocumentRead 文档读取失败错误
	ErrDocumentRead = errors.New("failed to read document")

	// ErrDocumentWrite 文档写出失败错误
	ErrDocumentWrite = errors.New("failed to write document")

	// ErrMappingSource 映射表加载失败错误
	ErrMappingSource = errors.New("failed to load mapping source")
)
