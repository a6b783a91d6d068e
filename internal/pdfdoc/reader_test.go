package pdfdoc

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/pdf-replacer/internal/models"
)

// fragment 构建测试用文本片段
func fragment(s, font string, size, x, y float64) pdf.Text {
	// 宽度按等宽估算，测试中只用于间隙判断
	return pdf.Text{
		S:        s,
		Font:     font,
		FontSize: size,
		X:        x,
		Y:        y,
		W:        float64(len(s)) * size * 0.5,
	}
}

// TestAssembleRunsMergeSameStyle 测试同样式同基线的片段合并为一个run
func TestAssembleRunsMergeSameStyle(t *testing.T) {
	texts := []pdf.Text{
		fragment("Hel", "Helvetica", 12, 72, 700),
		fragment("lo", "Helvetica", 12, 90, 700),
	}

	runs := AssembleRuns(1, texts)
	require.Len(t, runs, 1)
	assert.Equal(t, "Hello", runs[0].Text)

	style, ok := runs[0].Style.(RunStyle)
	require.True(t, ok)
	assert.Equal(t, "Helvetica", style.Font)
	assert.Equal(t, 12.0, style.FontSize)
	assert.Equal(t, 72.0, style.X, "run锚点应取首片段坐标")
	assert.Equal(t, 700.0, style.Y)
}

// TestAssembleRunsWordGap 测试横向空隙超阈值时补空格
func TestAssembleRunsWordGap(t *testing.T) {
	first := fragment("Hello", "Helvetica", 12, 72, 700)
	second := fragment("world", "Helvetica", 12, first.X+first.W+6, 700)

	runs := AssembleRuns(1, []pdf.Text{first, second})
	require.Len(t, runs, 1)
	assert.Equal(t, "Hello world", runs[0].Text)
}

// TestAssembleRunsNoGapNoSpace 测试紧邻片段不补空格
func TestAssembleRunsNoGapNoSpace(t *testing.T) {
	first := fragment("Hel", "Helvetica", 12, 72, 700)
	second := fragment("lo", "Helvetica", 12, first.X+first.W, 700)

	runs := AssembleRuns(1, []pdf.Text{first, second})
	require.Len(t, runs, 1)
	assert.Equal(t, "Hello", runs[0].Text)
}

// TestAssembleRunsFontChange 测试字体变化切分run
func TestAssembleRunsFontChange(t *testing.T) {
	texts := []pdf.Text{
		fragment("Title", "Helvetica-Bold", 14, 72, 700),
		fragment("body", "Helvetica", 11, 120, 700),
	}

	runs := AssembleRuns(1, texts)
	require.Len(t, runs, 2)
	assert.Equal(t, "Title", runs[0].Text)
	assert.Equal(t, "body", runs[1].Text)
	assert.Equal(t, 0, runs[0].Origin.Index)
	assert.Equal(t, 1, runs[1].Origin.Index)
	assert.Equal(t, 1, runs[0].Origin.Page)
}

// TestAssembleRunsLineChange 测试换行切分run且不引入分隔符
func TestAssembleRunsLineChange(t *testing.T) {
	texts := []pdf.Text{
		fragment("line one", "Helvetica", 12, 72, 700),
		fragment("line two", "Helvetica", 12, 72, 684),
	}

	runs := AssembleRuns(1, texts)
	require.Len(t, runs, 2)
	assert.Equal(t, "line one", runs[0].Text)
	assert.Equal(t, "line two", runs[1].Text)

	s0 := runs[0].Style.(RunStyle)
	s1 := runs[1].Style.(RunStyle)
	assert.Equal(t, 700.0, s0.Y)
	assert.Equal(t, 684.0, s1.Y)
}

// TestAssembleRunsSizeChange 测试字号变化切分run
func TestAssembleRunsSizeChange(t *testing.T) {
	texts := []pdf.Text{
		fragment("big", "Helvetica", 18, 72, 700),
		fragment("small", "Helvetica", 9, 110, 700),
	}

	runs := AssembleRuns(1, texts)
	require.Len(t, runs, 2)
}

// TestAssembleRunsKeepWhitespace 测试纯空白片段保留为独立run
// 样式不同的空格片段也占据拼接流的位置，跨越它的键才能匹配上
func TestAssembleRunsKeepWhitespace(t *testing.T) {
	texts := []pdf.Text{
		fragment("Prod", "Helvetica-Bold", 12, 72, 700),
		fragment(" ", "Helvetica", 12, 96, 700),
		fragment("uct", "Helvetica-Bold", 12, 102, 700),
	}

	runs := AssembleRuns(1, texts)
	require.Len(t, runs, 3)
	assert.Equal(t, " ", runs[1].Text)
	assert.Equal(t, "Prod uct", runs[0].Text+runs[1].Text+runs[2].Text)

	assert.Empty(t, AssembleRuns(1, nil))
}

// TestAssembleRunsUnicode 测试多字节文本聚合
func TestAssembleRunsUnicode(t *testing.T) {
	texts := []pdf.Text{
		fragment("这是", "SimSun", 12, 72, 700),
		fragment("文档", "SimSun", 12, 84, 700),
	}

	runs := AssembleRuns(1, texts)
	require.Len(t, runs, 1)
	assert.Equal(t, "这是文档", runs[0].Text)
}

// TestLoadMissingFile 测试加载不存在的文件返回读取错误
func TestLoadMissingFile(t *testing.T) {
	reader := NewReader(nil)
	_, err := reader.Load("testdata/no-such-file.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDocumentRead)
}
