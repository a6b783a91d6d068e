package engine

import "github.com/fyerfyer/pdf-replacer/internal/mapping"

// Engine 文本替换引擎
// 持有一张只读映射表，对run序列执行定位加改写。
// 引擎本身无状态可变，可被多个文档处理协程并发共享。
type Engine struct {
	table *mapping.Table
}

// New 创建替换引擎
func New(table *mapping.Table) *Engine {
	return &Engine{table: table}
}

// Table 返回引擎持有的映射表
func (e *Engine) Table() *mapping.Table {
	return e.table
}

// ReplaceRuns 对一页的run序列执行一轮定位加改写
// 无匹配时返回原序列和计数0，这不是错误。
func (e *Engine) ReplaceRuns(runs []TextRun) ([]TextRun, int) {
	occurrences := Locate(runs, e.table)
	return Apply(runs, occurrences)
}
