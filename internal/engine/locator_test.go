package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/pdf-replacer/internal/mapping"
)

// makeTable 构建测试用映射表
func makeTable(t *testing.T, pairs ...[2]string) *mapping.Table {
	t.Helper()
	rows := make([]mapping.Row, 0, len(pairs))
	for i, p := range pairs {
		rows = append(rows, mapping.Row{From: p[0], To: p[1], Line: i + 2})
	}
	table, warnings := mapping.Build(rows)
	require.Empty(t, warnings)
	return table
}

// singleRun 构建只有一个run的序列
func singleRun(text string) []TextRun {
	return []TextRun{{Text: text, Style: "s0", Origin: Origin{Page: 1, Index: 0}}}
}

// TestLocateBasic 测试单run内的基本定位
func TestLocateBasic(t *testing.T) {
	table := makeTable(t, [2]string{"2023", "2024"})
	runs := singleRun("annual report 2023 edition")

	occs := Locate(runs, table)
	require.Len(t, occs, 1)
	assert.Equal(t, "2023", occs[0].Entry.Key)
	assert.Equal(t, 14, occs[0].Start)
	assert.Equal(t, 18, occs[0].End)
	assert.Equal(t, 0, occs[0].FirstRun)
	assert.Equal(t, 0, occs[0].LastRun)
}

// TestLocateDeterminism 测试同一输入两次定位结果一致
func TestLocateDeterminism(t *testing.T) {
	table := makeTable(t,
		[2]string{"2023", "2024"},
		[2]string{"report", "summary"},
		[2]string{"annual report", "yearly report"},
	)
	runs := []TextRun{
		{Text: "annual ", Style: "a", Origin: Origin{Page: 1, Index: 0}},
		{Text: "report 2023", Style: "b", Origin: Origin{Page: 1, Index: 1}},
	}

	first := Locate(runs, table)
	second := Locate(runs, table)
	assert.Equal(t, first, second, "无修改的重复定位应产生相同结果")
}

// TestLocateNonOverlapping 测试出现互不重叠且按起始偏移递增
func TestLocateNonOverlapping(t *testing.T) {
	table := makeTable(t,
		[2]string{"aa", "x"},
		[2]string{"ab", "y"},
	)
	runs := singleRun("aaabaa")

	occs := Locate(runs, table)
	for i := 1; i < len(occs); i++ {
		assert.Greater(t, occs[i].Start, occs[i-1].Start, "出现应按起始偏移严格递增")
		assert.GreaterOrEqual(t, occs[i].Start, occs[i-1].End, "出现不应重叠")
	}
}

// TestLocateLongestMatchFirst 测试最长匹配优先
func TestLocateLongestMatchFirst(t *testing.T) {
	table := makeTable(t,
		[2]string{"2023", "2024"},
		[2]string{"2023 report", "2024 report"},
	)
	runs := singleRun("2023 report filed")

	occs := Locate(runs, table)
	require.Len(t, occs, 1)
	assert.Equal(t, "2023 report", occs[0].Entry.Key, "同一位置应选择最长的键")
}

// TestLocateConsumedCharacters 测试已消费的字符不再参与匹配
func TestLocateConsumedCharacters(t *testing.T) {
	table := makeTable(t,
		[2]string{"abc", "1"},
		[2]string{"cd", "2"},
	)
	runs := singleRun("abcd")

	occs := Locate(runs, table)
	require.Len(t, occs, 1, "abc消费c之后cd不应再匹配")
	assert.Equal(t, "abc", occs[0].Entry.Key)
}

// TestLocateTieBreakByFirstSeen 测试等长键按首见顺序裁决
func TestLocateTieBreakByFirstSeen(t *testing.T) {
	table := makeTable(t,
		[2]string{"ab", "first"},
		[2]string{"ab2", "longer"},
	)
	runs := singleRun("ab")

	occs := Locate(runs, table)
	require.Len(t, occs, 1)
	assert.Equal(t, "ab", occs[0].Entry.Key)
}

// TestLocateCrossRun 测试跨run匹配
func TestLocateCrossRun(t *testing.T) {
	table := makeTable(t, [2]string{"Product A", "Item"})
	runs := []TextRun{
		{Text: "Prod", Style: "bold", Origin: Origin{Page: 1, Index: 0}},
		{Text: "uct A v1", Style: "plain", Origin: Origin{Page: 1, Index: 1}},
	}

	occs := Locate(runs, table)
	require.Len(t, occs, 1)
	assert.Equal(t, 0, occs[0].FirstRun)
	assert.Equal(t, 1, occs[0].LastRun)
	assert.Equal(t, 0, occs[0].Start)
	assert.Equal(t, 9, occs[0].End)
}

// TestLocateNoImplicitSeparator 测试run边界不携带隐式分隔符
func TestLocateNoImplicitSeparator(t *testing.T) {
	table := makeTable(t, [2]string{"a b", "x"})
	// 两个run拼接为"ab"，键"a b"中的空格在文本流中不存在
	runs := []TextRun{
		{Text: "a", Style: "s", Origin: Origin{Page: 1, Index: 0}},
		{Text: "b", Style: "s", Origin: Origin{Page: 1, Index: 1}},
	}

	occs := Locate(runs, table)
	assert.Empty(t, occs, "run边界不应被当作空白参与匹配")
}

// TestLocateCaseSensitive 测试匹配区分大小写与空白
func TestLocateCaseSensitive(t *testing.T) {
	table := makeTable(t, [2]string{"Draft", "Final"})

	assert.Empty(t, Locate(singleRun("draft"), table))
	assert.Empty(t, Locate(singleRun("D raft"), table))
	assert.Len(t, Locate(singleRun("Draft"), table), 1)
}

// TestLocateUnicode 测试多字节字符的定位偏移按字符计
func TestLocateUnicode(t *testing.T) {
	table := makeTable(t, [2]string{"文档", "document"})
	runs := singleRun("这是文档内容")

	occs := Locate(runs, table)
	require.Len(t, occs, 1)
	assert.Equal(t, 2, occs[0].Start)
	assert.Equal(t, 4, occs[0].End)
}

// TestLocateEmptyInputs 测试空输入
func TestLocateEmptyInputs(t *testing.T) {
	table := makeTable(t, [2]string{"x", "y"})

	assert.Empty(t, Locate(nil, table))
	assert.Empty(t, Locate(singleRun(""), table))

	empty, _ := mapping.Build(nil)
	assert.Empty(t, Locate(singleRun("some text"), empty))
}

// TestLocateMultipleOccurrences 测试同一键的多次出现
func TestLocateMultipleOccurrences(t *testing.T) {
	table := makeTable(t, [2]string{"aa", "b"})
	runs := singleRun("aa aa aa")

	occs := Locate(runs, table)
	require.Len(t, occs, 3)
	assert.Equal(t, 0, occs[0].Start)
	assert.Equal(t, 3, occs[1].Start)
	assert.Equal(t, 6, occs[2].Start)
}
