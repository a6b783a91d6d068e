package engine

// Apply 把定位到的出现应用到run序列上，返回新序列与替换计数
// occurrences必须按起始偏移递增且互不重叠（Locate的输出保证这一点）。
//
// 每个出现覆盖的文本被替换为条目的值，新文本合并为单个run并继承
// 跨越区间内首个run的样式；匹配起止点落在run中间时，剩余的前缀
// 和后缀文本保留为独立run并保持各自原有样式。未被任何出现触及的
// run原样进入输出。替换值为空时只删除不产生新run。
//
// Apply是纯函数：输入runs不被修改，调用方可以在失败时继续使用
// 原序列，从而保证按文档粒度的全有或全无语义。
func Apply(runs []TextRun, occurrences []Occurrence) ([]TextRun, int) {
	if len(occurrences) == 0 {
		return runs, 0
	}

	starts := runeStarts(runs)
	total := starts[len(runs)]

	out := make([]TextRun, 0, len(runs)+len(occurrences))
	cursor := 0 // 拼接文本中下一个未输出的字符偏移
	count := 0

	for _, occ := range occurrences {
		out = appendPreserved(out, runs, starts, cursor, occ.Start)

		if occ.Entry.Value != "" {
			first := runs[occ.FirstRun]
			out = append(out, TextRun{
				Text:   occ.Entry.Value,
				Style:  first.Style,
				Origin: first.Origin,
			})
		}
		count++
		cursor = occ.End
	}

	out = appendPreserved(out, runs, starts, cursor, total)
	return out, count
}

// appendPreserved 把拼接文本[from, to)区间按原run边界切片输出
// 完整覆盖的run原样拷贝（样式句柄字节不变），部分覆盖的run切出
// 对应子串并保留该run自己的样式。
func appendPreserved(out []TextRun, runs []TextRun, starts []int, from, to int) []TextRun {
	if from >= to {
		return out
	}

	first := runAt(starts, from)
	for i := first; i < len(runs); i++ {
		runStart, runEnd := starts[i], starts[i+1]
		if runStart >= to {
			break
		}
		if runEnd <= from {
			continue
		}

		if from <= runStart && to >= runEnd {
			// run完整保留，包括空run
			out = append(out, runs[i])
			continue
		}

		lo := max(from, runStart)
		hi := min(to, runEnd)
		text := []rune(runs[i].Text)
		out = append(out, TextRun{
			Text:   string(text[lo-runStart : hi-runStart]),
			Style:  runs[i].Style,
			Origin: runs[i].Origin,
		})
	}
	return out
}
