package engine

import (
	"strings"

	"github.com/fyerfyer/pdf-replacer/internal/mapping"
)

// Locate 在run序列中定位映射表键的所有不重叠出现
// 不修改输入。匹配策略：
//   - 把run文本拼接成一条逻辑文本流，run边界不插入任何分隔符；
//   - 从左到右扫描，每个位置按表序尝试首字符相同的键（长键优先，
//     等长按首见顺序），首个命中的键获胜；
//   - 命中后跳过整个匹配区间，被消费的字符不再参与任何键的匹配；
//   - 匹配是精确的字符等值比较，不做大小写折叠或空白归一化。
//
// 同样的输入总是产生同样的结果，出现按起始偏移严格递增。
func Locate(runs []TextRun, table *mapping.Table) []Occurrence {
	if len(runs) == 0 || table == nil || table.Len() == 0 {
		return nil
	}

	var sb strings.Builder
	for _, run := range runs {
		sb.WriteString(run.Text)
	}
	text := []rune(sb.String())
	if len(text) == 0 {
		return nil
	}

	starts := runeStarts(runs)
	var occurrences []Occurrence

	for i := 0; i < len(text); {
		entry, length, ok := matchAt(text, i, table)
		if !ok {
			i++
			continue
		}
		occurrences = append(occurrences, Occurrence{
			Entry:    entry,
			Start:    i,
			End:      i + length,
			FirstRun: runAt(starts, i),
			LastRun:  runAt(starts, i+length-1),
		})
		i += length
	}

	return occurrences
}

// matchAt 尝试在位置i匹配任意表键，返回首个命中的条目
func matchAt(text []rune, i int, table *mapping.Table) (mapping.Entry, int, bool) {
	for _, entry := range table.CandidatesFor(text[i]) {
		key := []rune(entry.Key)
		if i+len(key) > len(text) {
			continue
		}
		if runesEqual(text[i:i+len(key)], key) {
			return entry, len(key), true
		}
	}
	return mapping.Entry{}, 0, false
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
