package pdfdoc

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-replacer/internal/engine"
	"github.com/fyerfyer/pdf-replacer/internal/models"
)

// A4页面默认尺寸，单位pt
const (
	defaultPageWidth  = 595.28
	defaultPageHeight = 841.89
)

// 同一run内相邻片段的合并阈值
const (
	sameLineTolerance = 0.5  // 基线纵坐标允许的偏差
	wordGapFactor     = 0.25 // 横向间隙超过字号的该倍数时补一个空格
)

// Reader PDF文档读取器
// 先用pdfcpu校验文件结构，再提取每页的文本片段并聚合成run。
type Reader struct {
	conf   *model.Configuration
	logger *logrus.Logger
}

// NewReader 创建文档读取器
func NewReader(logger *logrus.Logger) *Reader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reader{
		conf:   model.NewDefaultConfiguration(),
		logger: logger,
	}
}

// Load 加载并解析PDF文档
func (r *Reader) Load(path string) (*Document, error) {
	if err := api.ValidateFile(path, r.conf); err != nil {
		return nil, fmt.Errorf("%w: validate %s: %v", models.ErrDocumentRead, path, err)
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", models.ErrDocumentRead, path, err)
	}
	defer file.Close()

	doc := &Document{
		ID:   uuid.New().String(),
		Path: path,
	}

	pageCount := reader.NumPage()
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			r.logger.WithFields(logrus.Fields{
				"path": path,
				"page": pageNum,
			}).Warn("Skipping null page")
			continue
		}

		width, height := pageSize(page)
		content := page.Content()
		runs := AssembleRuns(pageNum, content.Text)

		doc.Pages = append(doc.Pages, Page{
			Number: pageNum,
			Width:  width,
			Height: height,
			Runs:   runs,
		})
	}

	r.logger.WithFields(logrus.Fields{
		"path":  path,
		"pages": len(doc.Pages),
		"runs":  doc.RunCount(),
	}).Info("Document loaded")

	return doc, nil
}

// PageCount 只读取页数，不做完整解析
func (r *Reader) PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: page count %s: %v", models.ErrDocumentRead, path, err)
	}
	return count, nil
}

// pageSize 解析页面的MediaBox尺寸，失败时退回A4
func pageSize(page pdf.Page) (float64, float64) {
	mediaBox := page.V.Key("MediaBox")
	if mediaBox.Kind() != pdf.Array || mediaBox.Len() != 4 {
		return defaultPageWidth, defaultPageHeight
	}

	llx := mediaBox.Index(0).Float64()
	lly := mediaBox.Index(1).Float64()
	urx := mediaBox.Index(2).Float64()
	ury := mediaBox.Index(3).Float64()

	width := urx - llx
	height := ury - lly
	if width <= 0 || height <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return width, height
}

// AssembleRuns 把按内容流顺序排列的文本片段聚合成run
// 字体、字号和基线都一致的相邻片段归入同一run；
// 同一行内片段之间的横向空隙超过阈值时在run文本中补入空格。
func AssembleRuns(pageNum int, texts []pdf.Text) []engine.TextRun {
	var runs []engine.TextRun
	var sb strings.Builder
	var cur RunStyle
	var prevEnd float64
	open := false

	flush := func() {
		if !open {
			return
		}
		// 纯空白的run也要保留：它占据拼接流里的位置，
		// 丢掉会让跨越该空格的键永远匹配不上
		text := sb.String()
		if text != "" {
			runs = append(runs, engine.TextRun{
				Text:   text,
				Style:  cur,
				Origin: engine.Origin{Page: pageNum, Index: len(runs)},
			})
		}
		sb.Reset()
		open = false
	}

	for _, t := range texts {
		if t.S == "" {
			continue
		}

		if open && sameRun(cur, t) {
			gap := t.X - prevEnd
			if gap > cur.FontSize*wordGapFactor {
				sb.WriteByte(' ')
			}
			sb.WriteString(t.S)
			prevEnd = t.X + t.W
			continue
		}

		flush()
		cur = RunStyle{
			Font:     t.Font,
			FontSize: t.FontSize,
			X:        t.X,
			Y:        t.Y,
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
		open = true
	}
	flush()

	return runs
}

// sameRun 判断片段是否延续当前run
func sameRun(cur RunStyle, t pdf.Text) bool {
	return t.Font == cur.Font &&
		t.FontSize == cur.FontSize &&
		math.Abs(t.Y-cur.Y) <= sameLineTolerance &&
		t.X >= cur.X
}
