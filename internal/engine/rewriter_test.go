package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// joinRuns 拼接run序列的文本
func joinRuns(runs []TextRun) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// TestApplyEmptyOccurrences 测试空出现列表时原样返回
func TestApplyEmptyOccurrences(t *testing.T) {
	runs := []TextRun{
		{Text: "hello", Style: "a", Origin: Origin{Page: 1, Index: 0}},
		{Text: "world", Style: "b", Origin: Origin{Page: 1, Index: 1}},
	}

	out, count := Apply(runs, nil)
	assert.Equal(t, 0, count)
	assert.Equal(t, runs, out, "无出现时run序列应原样返回")
}

// TestApplySingleRunReplace 测试单run内替换并保留前后缀
func TestApplySingleRunReplace(t *testing.T) {
	table := makeTable(t, [2]string{"2023", "2024"})
	runs := singleRun("annual report 2023 edition")

	out, count := Apply(runs, Locate(runs, table))
	assert.Equal(t, 1, count)
	assert.Equal(t, "annual report 2024 edition", joinRuns(out))

	// 前缀、替换、后缀都保留首run的样式
	require.Len(t, out, 3)
	for _, r := range out {
		assert.Equal(t, "s0", r.Style)
	}
}

// TestApplyEmptyValueDeletes 测试空值替换表现为删除
func TestApplyEmptyValueDeletes(t *testing.T) {
	table := makeTable(t, [2]string{"DRAFT", ""})
	runs := singleRun("DRAFT report")

	out, count := Apply(runs, Locate(runs, table))
	assert.Equal(t, 1, count, "空值替换同样计数")
	assert.Equal(t, " report", joinRuns(out), "匹配文本删除，前导空格保留")
}

// TestApplyValueEqualsKey 测试值等于键时仍然计数
func TestApplyValueEqualsKey(t *testing.T) {
	table := makeTable(t, [2]string{"same", "same"})
	runs := singleRun("the same text")

	out, count := Apply(runs, Locate(runs, table))
	assert.Equal(t, 1, count)
	assert.Equal(t, "the same text", joinRuns(out))
}

// TestApplyCrossRunStyleInheritance 测试跨run匹配继承首run样式
func TestApplyCrossRunStyleInheritance(t *testing.T) {
	table := makeTable(t, [2]string{"Product A", "Item"})
	runs := []TextRun{
		{Text: "Prod", Style: "bold", Origin: Origin{Page: 1, Index: 0}},
		{Text: "uct A v1", Style: "plain", Origin: Origin{Page: 1, Index: 1}},
	}

	out, count := Apply(runs, Locate(runs, table))
	assert.Equal(t, 1, count)
	require.Len(t, out, 2)

	// 替换文本合并为单个run并继承首run样式
	assert.Equal(t, "Item", out[0].Text)
	assert.Equal(t, "bold", out[0].Style)

	// 末run中未匹配的后缀保留原样式
	assert.Equal(t, " v1", out[1].Text)
	assert.Equal(t, "plain", out[1].Style)
}

// TestApplyMidRunBoundaries 测试匹配起止都落在run中间
func TestApplyMidRunBoundaries(t *testing.T) {
	table := makeTable(t, [2]string{"cde", "X"})
	runs := []TextRun{
		{Text: "abcd", Style: "r1", Origin: Origin{Page: 1, Index: 0}},
		{Text: "efgh", Style: "r2", Origin: Origin{Page: 1, Index: 1}},
	}

	out, count := Apply(runs, Locate(runs, table))
	assert.Equal(t, 1, count)
	assert.Equal(t, "abXfgh", joinRuns(out))

	require.Len(t, out, 3)
	assert.Equal(t, TextRun{Text: "ab", Style: "r1", Origin: Origin{Page: 1, Index: 0}}, out[0])
	assert.Equal(t, "r1", out[1].Style, "替换run继承首run样式")
	assert.Equal(t, TextRun{Text: "fgh", Style: "r2", Origin: Origin{Page: 1, Index: 1}}, out[2])
}

// TestApplyUntouchedRunsIdentical 测试未触及的run原样保留
func TestApplyUntouchedRunsIdentical(t *testing.T) {
	table := makeTable(t, [2]string{"mid", "MID"})
	runs := []TextRun{
		{Text: "before ", Style: "a", Origin: Origin{Page: 1, Index: 0}},
		{Text: "mid", Style: "b", Origin: Origin{Page: 1, Index: 1}},
		{Text: " after", Style: "c", Origin: Origin{Page: 1, Index: 2}},
	}

	out, count := Apply(runs, Locate(runs, table))
	assert.Equal(t, 1, count)
	require.Len(t, out, 3)
	assert.Equal(t, runs[0], out[0], "匹配之前的run应逐字节一致")
	assert.Equal(t, runs[2], out[2], "匹配之后的run应逐字节一致")
	assert.Equal(t, "MID", out[1].Text)
	assert.Equal(t, "b", out[1].Style)
}

// TestApplyMultipleInOneRun 测试同一run内多次替换
func TestApplyMultipleInOneRun(t *testing.T) {
	table := makeTable(t,
		[2]string{"old company name", "New Company Inc."},
		[2]string{"2023", "2024"},
	)
	runs := singleRun("old company name, est. 2023")

	out, count := Apply(runs, Locate(runs, table))
	assert.Equal(t, 2, count)
	assert.Equal(t, "New Company Inc., est. 2024", joinRuns(out))
}

// TestApplyDoesNotMutateInput 测试输入序列不被修改
func TestApplyDoesNotMutateInput(t *testing.T) {
	table := makeTable(t, [2]string{"abc", "xyz"})
	runs := []TextRun{
		{Text: "abc def", Style: "s", Origin: Origin{Page: 1, Index: 0}},
	}
	snapshot := make([]TextRun, len(runs))
	copy(snapshot, runs)

	_, _ = Apply(runs, Locate(runs, table))
	assert.Equal(t, snapshot, runs, "Apply不应修改输入")
}

// TestApplyLongerReplacement 测试替换值比键长
func TestApplyLongerReplacement(t *testing.T) {
	table := makeTable(t, [2]string{"Co", "Corporation"})
	runs := []TextRun{
		{Text: "Acme C", Style: "h1", Origin: Origin{Page: 1, Index: 0}},
		{Text: "o Ltd", Style: "h2", Origin: Origin{Page: 1, Index: 1}},
	}

	out, count := Apply(runs, Locate(runs, table))
	assert.Equal(t, 1, count)
	assert.Equal(t, "Acme Corporation Ltd", joinRuns(out))
	// 跨run替换统一到首run样式
	assert.Equal(t, "h1", out[1].Style)
}
