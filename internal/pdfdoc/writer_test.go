package pdfdoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/pdf-replacer/internal/engine"
)

// sampleDocument 构建测试用单页文档
func sampleDocument() *Document {
	return &Document{
		ID:   "test-doc",
		Path: "input.pdf",
		Pages: []Page{
			{
				Number: 1,
				Width:  defaultPageWidth,
				Height: defaultPageHeight,
				Runs: []engine.TextRun{
					{
						Text:   "Hello world",
						Style:  RunStyle{Font: "Helvetica", FontSize: 12, X: 72, Y: 700},
						Origin: engine.Origin{Page: 1, Index: 0},
					},
					{
						Text:   "second line",
						Style:  RunStyle{Font: "Times-Bold", FontSize: 14, X: 72, Y: 680},
						Origin: engine.Origin{Page: 1, Index: 1},
					},
				},
			},
		},
	}
}

// TestWriterWrite 测试文档写出生成有效文件
func TestWriterWrite(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.pdf")

	writer := NewWriter(nil)
	err := writer.Write(sampleDocument(), outPath)
	require.NoError(t, err)

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "写出的PDF不应为空")
}

// TestWriterRoundTrip 测试写出的文档可被重新加载
func TestWriterRoundTrip(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "roundtrip.pdf")

	writer := NewWriter(nil)
	require.NoError(t, writer.Write(sampleDocument(), outPath))

	reader := NewReader(nil)
	doc, err := reader.Load(outPath)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Contains(t, doc.Pages[0].Text(), "Hello")
}

// TestWriterMissingStyle 测试缺失样式的run写出失败
func TestWriterMissingStyle(t *testing.T) {
	doc := sampleDocument()
	doc.Pages[0].Runs[0].Style = nil

	writer := NewWriter(nil)
	err := writer.Write(doc, filepath.Join(t.TempDir(), "bad.pdf"))
	require.Error(t, err)
}

// TestMapFontName 测试字体名映射到核心字体
func TestMapFontName(t *testing.T) {
	tests := []struct {
		name    string
		pdfFont string
		family  string
		variant string
	}{
		{"helvetica", "Helvetica", "Helvetica", ""},
		{"helvetica bold", "Helvetica-Bold", "Helvetica", "B"},
		{"subset times", "ABCDEF+Times-Roman", "Times", ""},
		{"times bold italic", "Times-BoldItalic", "Times", "BI"},
		{"courier oblique", "Courier-Oblique", "Courier", "I"},
		{"unknown falls back", "SimSun", "Helvetica", ""},
		{"arial maps to helvetica", "Arial-Bold", "Helvetica", "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			family, variant := mapFontName(tt.pdfFont)
			assert.Equal(t, tt.family, family)
			assert.Equal(t, tt.variant, variant)
		})
	}
}
