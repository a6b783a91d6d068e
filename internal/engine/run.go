package engine

import "github.com/fyerfyer/pdf-replacer/internal/mapping"

// Style 不透明样式句柄（字体、字号、位置锚点等）
// 引擎只负责把样式原样带到派生出的run上，从不解释其内容。
type Style interface{}

// Origin run在源文档中的位置引用
type Origin struct {
	Page  int // 页码，1起始
	Index int // run在页内原始序列中的下标
}

// TextRun 一段共享同一样式定义的连续文本
// run序列表示一页可见文本的线性阅读顺序。
type TextRun struct {
	Text   string // 文本内容
	Style  Style  // 样式句柄，原样拷贝到派生run
	Origin Origin // 源文档位置
}

// Occurrence 一次定位到的键匹配
// 只在单个文档的一次定位-改写过程中存在，不持久化。
type Occurrence struct {
	Entry    mapping.Entry // 命中的规则条目
	Start    int           // 拼接文本中的起始字符偏移（含）
	End      int           // 拼接文本中的结束字符偏移（不含）
	FirstRun int           // 跨越的首个run下标
	LastRun  int           // 跨越的末个run下标
}

// runeStarts 计算每个run在拼接文本中的起始字符偏移
// 返回切片长度为len(runs)+1，末位是拼接文本总长。
func runeStarts(runs []TextRun) []int {
	starts := make([]int, len(runs)+1)
	total := 0
	for i, run := range runs {
		starts[i] = total
		total += len([]rune(run.Text))
	}
	starts[len(runs)] = total
	return starts
}

// runAt 返回包含字符偏移off的run下标
// starts来自runeStarts；off必须落在[0, total)内。
func runAt(starts []int, off int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi-1 {
		mid := (lo + hi) / 2
		if starts[mid] <= off {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}
