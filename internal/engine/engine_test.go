package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/pdf-replacer/internal/mapping"
)

// TestEngineEndToEnd 测试完整的定位加改写场景
func TestEngineEndToEnd(t *testing.T) {
	table := makeTable(t,
		[2]string{"old company name", "New Company Inc."},
		[2]string{"2023", "2024"},
	)
	eng := New(table)

	runs := singleRun("old company name, est. 2023")
	out, count := eng.ReplaceRuns(runs)

	assert.Equal(t, 2, count)
	assert.Equal(t, "New Company Inc., est. 2024", joinRuns(out))
}

// TestEngineEmptyTableIdempotent 测试空表替换不改变输入
func TestEngineEmptyTableIdempotent(t *testing.T) {
	empty, _ := mapping.Build(nil)
	eng := New(empty)

	runs := []TextRun{
		{Text: "untouched ", Style: "a", Origin: Origin{Page: 1, Index: 0}},
		{Text: "content", Style: "b", Origin: Origin{Page: 1, Index: 1}},
	}

	out, count := eng.ReplaceRuns(runs)
	assert.Equal(t, 0, count)
	assert.Equal(t, runs, out, "空表替换应原样返回run序列")
}

// TestEngineNoOccurrences 测试无匹配不是错误
func TestEngineNoOccurrences(t *testing.T) {
	table := makeTable(t, [2]string{"absent", "present"})
	eng := New(table)

	runs := singleRun("nothing to do here")
	out, count := eng.ReplaceRuns(runs)
	assert.Equal(t, 0, count)
	assert.Equal(t, runs, out)
}

// TestEngineCrossRunScenario 测试规格中的跨run场景
func TestEngineCrossRunScenario(t *testing.T) {
	table := makeTable(t, [2]string{"Product A", "Item"})
	eng := New(table)

	runs := []TextRun{
		{Text: "Prod", Style: "styleA", Origin: Origin{Page: 1, Index: 0}},
		{Text: "uct A v1", Style: "styleB", Origin: Origin{Page: 1, Index: 1}},
	}

	out, count := eng.ReplaceRuns(runs)
	assert.Equal(t, 1, count)
	require.Len(t, out, 2)
	assert.Equal(t, "Item", out[0].Text)
	assert.Equal(t, "styleA", out[0].Style)
	assert.Equal(t, " v1", out[1].Text)
	assert.Equal(t, "styleB", out[1].Style)
}

// TestEngineRepeatedApplicationStable 测试重复执行结果稳定
func TestEngineRepeatedApplicationStable(t *testing.T) {
	table := makeTable(t, [2]string{"2023", "2024"})
	eng := New(table)

	runs := singleRun("report 2023 and 2023 again")

	out1, count1 := eng.ReplaceRuns(runs)
	out2, count2 := eng.ReplaceRuns(runs)
	assert.Equal(t, count1, count2)
	assert.Equal(t, joinRuns(out1), joinRuns(out2))
	assert.Equal(t, 2, count1)
}
