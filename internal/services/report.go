package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/fyerfyer/pdf-replacer/internal/mapping"
	"github.com/fyerfyer/pdf-replacer/internal/models"
)

// ReportFormat 报告输出格式
type ReportFormat string

const (
	// ReportMarkdown Markdown格式报告
	ReportMarkdown ReportFormat = "markdown"
	// ReportHTML HTML格式报告
	ReportHTML ReportFormat = "html"
)

// MarkdownReport 生成批处理结果的Markdown报告
func MarkdownReport(summary BatchSummary, warnings []mapping.Warning) string {
	var sb strings.Builder

	sb.WriteString("# Batch Replacement Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated at %s\n\n", time.Now().Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- Documents: %d\n", summary.Total))
	sb.WriteString(fmt.Sprintf("- Succeeded: %d\n", summary.Succeeded))
	sb.WriteString(fmt.Sprintf("- Failed: %d\n", summary.Failed))
	if summary.Canceled > 0 {
		sb.WriteString(fmt.Sprintf("- Canceled: %d\n", summary.Canceled))
	}
	sb.WriteString(fmt.Sprintf("- Total replacements: %d\n", summary.Replacements))
	sb.WriteString(fmt.Sprintf("- Elapsed: %s\n\n", summary.Elapsed.Round(time.Millisecond)))

	if len(warnings) > 0 {
		sb.WriteString("## Mapping Table Warnings\n\n")
		for _, w := range warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w.String()))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Documents\n\n")
	sb.WriteString("| Input | Output | Replacements | Status |\n")
	sb.WriteString("|-------|--------|--------------|--------|\n")
	for _, o := range summary.Outcomes {
		if o.Err != nil {
			sb.WriteString(fmt.Sprintf("| %s | - | - | failed: %s |\n",
				o.InputPath, o.Err.Error()))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | ok |\n",
			o.InputPath, o.OutputPath, o.Result.Replacements))
	}

	return sb.String()
}

// HTMLReport 生成批处理结果的HTML报告
func HTMLReport(summary BatchSummary, warnings []mapping.Warning) []byte {
	md := MarkdownReport(summary, warnings)

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)
	doc := mdParser.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.CompletePage
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: htmlFlags,
		Title: "Batch Replacement Report",
	})

	return markdown.Render(doc, renderer)
}

// SummaryFromRecords 从落盘的文档结果重建批处理汇总
// 用于对历史任务生成报告，耗时信息不可恢复。
func SummaryFromRecords(records []*models.DocumentResult) BatchSummary {
	summary := BatchSummary{
		Total:    len(records),
		Outcomes: make([]DocumentOutcome, 0, len(records)),
	}

	for _, r := range records {
		outcome := DocumentOutcome{
			InputPath:  r.InputPath,
			OutputPath: r.OutputPath,
		}

		switch r.Status {
		case models.JobStatusCompleted:
			summary.Succeeded++
			summary.Replacements += r.Replacements
			outcome.Result = &Result{
				DocumentID:   r.DocumentID,
				InputPath:    r.InputPath,
				OutputPath:   r.OutputPath,
				Pages:        r.Pages,
				Replacements: r.Replacements,
			}
		case models.JobStatusCanceled:
			summary.Canceled++
			outcome.Err = errors.New("canceled")
		default:
			summary.Failed++
			if r.Error != "" {
				outcome.Err = errors.New(r.Error)
			} else {
				outcome.Err = errors.New("failed")
			}
		}

		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	return summary
}

// WriteReport 把报告写入指定路径
func WriteReport(path string, format ReportFormat, summary BatchSummary, warnings []mapping.Warning) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	var data []byte
	switch format {
	case ReportHTML:
		data = HTMLReport(summary, warnings)
	default:
		data = []byte(MarkdownReport(summary, warnings))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
