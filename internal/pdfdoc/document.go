package pdfdoc

import (
	"strings"

	"github.com/fyerfyer/pdf-replacer/internal/engine"
)

// RunStyle PDF文本run的样式句柄
// 引擎把它当作不透明值携带，只有本包在读写时解释其内容。
type RunStyle struct {
	Font     string  // 字体名（含子集前缀的原始名）
	FontSize float64 // 字号，单位pt
	X        float64 // 基线起点横坐标，PDF坐标系
	Y        float64 // 基线纵坐标，PDF坐标系（原点在左下角）
}

// Page 文档的一页
type Page struct {
	Number int              // 页码，1起始
	Width  float64          // 页宽，单位pt
	Height float64          // 页高，单位pt
	Runs   []engine.TextRun // 按阅读顺序排列的文本run
}

// Text 返回本页run文本的拼接结果
func (p *Page) Text() string {
	var sb strings.Builder
	for _, run := range p.Runs {
		sb.WriteString(run.Text)
	}
	return sb.String()
}

// Document 已加载到内存的结构化文档
// 页内run序列可被替换引擎原地更新，其余内容不被触碰。
type Document struct {
	ID    string // 文档唯一标识
	Path  string // 源文件路径
	Pages []Page // 页序列
}

// RunCount 返回全文档run总数
func (d *Document) RunCount() int {
	n := 0
	for i := range d.Pages {
		n += len(d.Pages[i].Runs)
	}
	return n
}
