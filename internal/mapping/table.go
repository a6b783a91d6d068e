package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"unicode/utf8"
)

// WarningKind 映射表构建警告类型
type WarningKind string

const (
	// WarnEmptyKey 空键警告，该行被忽略
	WarnEmptyKey WarningKind = "empty_key"
	// WarnDuplicateKey 重复键警告，保留首次出现的行
	WarnDuplicateKey WarningKind = "duplicate_key"
)

// Warning 构建映射表时产生的非致命警告
// 警告只收集返回，不会中断构建
type Warning struct {
	Kind WarningKind `json:"kind"` // 警告类型
	Key  string      `json:"key"`  // 相关的键（空键警告时为空）
	Row  int         `json:"row"`  // 来源行号（含表头，首条数据行为2）
}

// String 返回可读的警告描述
func (w Warning) String() string {
	switch w.Kind {
	case WarnEmptyKey:
		return fmt.Sprintf("empty key at row %d", w.Row)
	case WarnDuplicateKey:
		return fmt.Sprintf("duplicate key %q at row %d, ignoring", w.Key, w.Row)
	default:
		return fmt.Sprintf("%s at row %d", w.Kind, w.Row)
	}
}

// Row 原始替换规则行，由CSV读取层产出
type Row struct {
	From string // 待替换文本
	To   string // 替换为的文本，允许为空（表示删除）
	Line int    // 源文件行号
}

// Entry 单条经过校验的替换规则
// 构建完成后不可变
type Entry struct {
	Key      string // 匹配键，保证非空
	Value    string // 替换值
	Priority int    // 首次出现顺序，0起始，用于等长键的并列裁决
}

// Table 校验去重后的替换规则表
// 条目按键长降序排列（等长按首见顺序），供定位器实现最长匹配优先。
// 构建一次后只读，可被多个文档处理协程共享。
type Table struct {
	entries []Entry
	byFirst map[rune][]Entry
}

// Build 从原始规则行构建映射表
// 空键行和重复键行被排除并产生警告，任何行都不会使构建失败。
func Build(rows []Row) (*Table, []Warning) {
	var warnings []Warning
	seen := make(map[string]struct{}, len(rows))
	entries := make([]Entry, 0, len(rows))

	for _, row := range rows {
		if row.From == "" {
			warnings = append(warnings, Warning{Kind: WarnEmptyKey, Row: row.Line})
			continue
		}
		if _, dup := seen[row.From]; dup {
			warnings = append(warnings, Warning{Kind: WarnDuplicateKey, Key: row.From, Row: row.Line})
			continue
		}
		seen[row.From] = struct{}{}
		entries = append(entries, Entry{
			Key:      row.From,
			Value:    row.To,
			Priority: len(entries),
		})
	}

	// 键长降序，等长时稳定排序保持首见顺序
	sort.SliceStable(entries, func(i, j int) bool {
		return utf8.RuneCountInString(entries[i].Key) > utf8.RuneCountInString(entries[j].Key)
	})

	byFirst := make(map[rune][]Entry)
	for _, e := range entries {
		r, _ := utf8.DecodeRuneInString(e.Key)
		byFirst[r] = append(byFirst[r], e)
	}

	return &Table{entries: entries, byFirst: byFirst}, warnings
}

// Len 返回表中条目数
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries 返回按优先级排列的全部条目
// 返回的切片不应被修改
func (t *Table) Entries() []Entry {
	return t.entries
}

// CandidatesFor 返回所有以r开头的条目，按匹配优先级排列
// 定位器在每个扫描位置只需尝试这些候选
func (t *Table) CandidatesFor(r rune) []Entry {
	return t.byFirst[r]
}

// Fingerprint 返回表内容的稳定指纹
// 用于结果缓存的键：同样的规则表产生同样的指纹
func (t *Table) Fingerprint() string {
	h := sha256.New()
	for _, e := range t.entries {
		fmt.Fprintf(h, "%d\x00%s\x00%s\x00", e.Priority, e.Key, e.Value)
	}
	return hex.EncodeToString(h.Sum(nil))
}
