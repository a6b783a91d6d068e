package mapping

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// 映射文件要求的两个表头列名
const (
	columnFrom = "from"
	columnTo   = "to"
)

// LoadCSV 从Reader读取替换规则行
// 要求表头含有from和to两列（大小写不敏感，允许其他列存在但被忽略）。
// 表头缺失或无法解析是结构性错误，直接返回；单行内容的校验留给Build。
func LoadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // 行内列数允许不一致，缺列按空值处理

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("mapping source is empty")
		}
		return nil, fmt.Errorf("failed to read mapping header: %w", err)
	}

	fromIdx, toIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case columnFrom:
			if fromIdx == -1 {
				fromIdx = i
			}
		case columnTo:
			if toIdx == -1 {
				toIdx = i
			}
		}
	}
	if fromIdx == -1 || toIdx == -1 {
		return nil, fmt.Errorf("mapping source must have 'from' and 'to' columns")
	}

	var rows []Row
	line := 1 // 表头是第1行
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read mapping row: %w", err)
		}
		line++

		rows = append(rows, Row{
			From: strings.TrimSpace(fieldAt(record, fromIdx)),
			To:   strings.TrimSpace(fieldAt(record, toIdx)),
			Line: line,
		})
	}

	return rows, nil
}

// LoadCSVFile 从文件加载替换规则行
func LoadCSVFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer f.Close()

	return LoadCSV(f)
}

// BuildFromFile 读取CSV文件并直接构建映射表
func BuildFromFile(path string) (*Table, []Warning, error) {
	rows, err := LoadCSVFile(path)
	if err != nil {
		return nil, nil, err
	}
	table, warnings := Build(rows)
	return table, warnings, nil
}

// fieldAt 取record的第i列，越界返回空串
func fieldAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
