package pdfdoc

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-replacer/internal/models"
)

// Writer PDF文档写出器
// 用内存中的页面与run序列重建一份新的PDF文件。
type Writer struct {
	logger *logrus.Logger
}

// NewWriter 创建文档写出器
func NewWriter(logger *logrus.Logger) *Writer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Writer{logger: logger}
}

// Write 把文档序列化到outPath
// 每页按原始尺寸重建，run在原基线位置以映射后的核心字体渲染。
func (w *Writer) Write(doc *Document, outPath string) error {
	out := gofpdf.New("P", "pt", "A4", "")

	for i := range doc.Pages {
		page := &doc.Pages[i]
		out.AddPageFormat("P", gofpdf.SizeType{Wd: page.Width, Ht: page.Height})

		for _, run := range page.Runs {
			style, ok := run.Style.(RunStyle)
			if !ok {
				return fmt.Errorf("%w: page %d run %d carries no style",
					models.ErrDocumentWrite, page.Number, run.Origin.Index)
			}

			family, variant := mapFontName(style.Font)
			out.SetFont(family, variant, style.FontSize)
			// gofpdf坐标系原点在左上角，PDF文本坐标原点在左下角
			out.Text(style.X, page.Height-style.Y, run.Text)
		}

		if err := out.Error(); err != nil {
			return fmt.Errorf("%w: render page %d: %v", models.ErrDocumentWrite, page.Number, err)
		}
	}

	if err := out.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("%w: save %s: %v", models.ErrDocumentWrite, outPath, err)
	}

	w.logger.WithFields(logrus.Fields{
		"path":  outPath,
		"pages": len(doc.Pages),
	}).Info("Document written")

	return nil
}

// mapFontName 把PDF内嵌字体名映射到gofpdf的核心字体
// 内嵌字体名可能带子集前缀（如ABCDEF+Times-Bold），先剥离再按族名匹配。
func mapFontName(pdfFont string) (family string, variant string) {
	name := pdfFont
	if idx := strings.IndexByte(name, '+'); idx >= 0 && idx == 6 {
		name = name[idx+1:]
	}
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "times"):
		family = "Times"
	case strings.Contains(lower, "courier"), strings.Contains(lower, "mono"):
		family = "Courier"
	default:
		family = "Helvetica"
	}

	if strings.Contains(lower, "bold") {
		variant += "B"
	}
	if strings.Contains(lower, "italic") || strings.Contains(lower, "oblique") {
		variant += "I"
	}
	return family, variant
}
