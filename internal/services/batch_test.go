package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRunAllSucceed(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeInput(t, dir, "a.pdf", "bytes-a"),
		writeInput(t, dir, "b.pdf", "bytes-b"),
		writeInput(t, dir, "c.pdf", "bytes-c"),
	}

	loader := &fakeLoader{texts: map[string]string{
		inputs[0]: "report 2023",
		inputs[1]: "2023 and 2023",
		inputs[2]: "no match here",
	}}
	writer := newFakeWriter()
	eng := buildEngine(t, [2]string{"2023", "2024"})

	svc := NewReplaceService(eng, loader, writer)
	coordinator := NewBatchCoordinator(svc,
		WithConcurrency(2),
		WithOutputDir(filepath.Join(dir, "out")),
	)

	summary := coordinator.Run(context.Background(), inputs)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 3, summary.Replacements)
	require.Len(t, summary.Outcomes, 3)

	// 结局按输入顺序排列
	for i, o := range summary.Outcomes {
		assert.Equal(t, inputs[i], o.InputPath)
		assert.NoError(t, o.Err)
	}
}

func TestBatchRunFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeInput(t, dir, "good.pdf", "bytes-good"),
		writeInput(t, dir, "bad.pdf", "bytes-bad"),
		writeInput(t, dir, "also-good.pdf", "bytes-also"),
	}

	loader := &fakeLoader{
		texts: map[string]string{
			inputs[0]: "report 2023",
			inputs[2]: "2023",
		},
		errs: map[string]error{inputs[1]: os.ErrPermission},
	}
	writer := newFakeWriter()
	eng := buildEngine(t, [2]string{"2023", "2024"})

	svc := NewReplaceService(eng, loader, writer)
	coordinator := NewBatchCoordinator(svc, WithOutputDir(filepath.Join(dir, "out")))

	summary := coordinator.Run(context.Background(), inputs)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Replacements)

	// 失败的文档不影响其他文档
	assert.NoError(t, summary.Outcomes[0].Err)
	assert.Error(t, summary.Outcomes[1].Err)
	assert.NoError(t, summary.Outcomes[2].Err)
}

func TestBatchRunCanceled(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeInput(t, dir, "a.pdf", "bytes-a"),
		writeInput(t, dir, "b.pdf", "bytes-b"),
	}

	loader := &fakeLoader{texts: map[string]string{
		inputs[0]: "x",
		inputs[1]: "y",
	}}
	writer := newFakeWriter()
	eng := buildEngine(t, [2]string{"2023", "2024"})

	svc := NewReplaceService(eng, loader, writer)
	coordinator := NewBatchCoordinator(svc, WithOutputDir(filepath.Join(dir, "out")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := coordinator.Run(ctx, inputs)
	assert.Equal(t, 2, summary.Canceled, "已取消的上下文应跳过全部文档")
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
}

func TestBatchRunEmptyInputs(t *testing.T) {
	eng := buildEngine(t, [2]string{"a", "b"})
	svc := NewReplaceService(eng, &fakeLoader{}, newFakeWriter())
	coordinator := NewBatchCoordinator(svc)

	summary := coordinator.Run(context.Background(), nil)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Outcomes)
}

func TestBatchRunSingleWorker(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeInput(t, dir, "a.pdf", "bytes-a"),
		writeInput(t, dir, "b.pdf", "bytes-b"),
	}

	loader := &fakeLoader{texts: map[string]string{
		inputs[0]: "2023",
		inputs[1]: "2023",
	}}
	writer := newFakeWriter()
	eng := buildEngine(t, [2]string{"2023", "2024"})

	svc := NewReplaceService(eng, loader, writer)
	coordinator := NewBatchCoordinator(svc,
		WithConcurrency(1),
		WithOutputDir(filepath.Join(dir, "out")),
	)

	summary := coordinator.Run(context.Background(), inputs)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Replacements)
}

func TestBatchExplicitOutputPath(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "contract.pdf", "bytes")

	loader := &fakeLoader{texts: map[string]string{input: "report 2023"}}
	writer := newFakeWriter()
	eng := buildEngine(t, [2]string{"2023", "2024"})

	svc := NewReplaceService(eng, loader, writer)
	outPath := filepath.Join(dir, "renamed", "final.pdf")
	coordinator := NewBatchCoordinator(svc, WithOutputPath(outPath))

	summary := coordinator.Run(context.Background(), []string{input})
	require.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, outPath, summary.Outcomes[0].OutputPath)
	assert.Contains(t, writer.docs, outPath, "文档应写到指定的输出路径")
}

func TestBatchOutputNaming(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "contract.pdf", "bytes")

	loader := &fakeLoader{texts: map[string]string{input: "text"}}
	writer := newFakeWriter()
	eng := buildEngine(t, [2]string{"a", "b"})

	svc := NewReplaceService(eng, loader, writer)
	outDir := filepath.Join(dir, "out")
	coordinator := NewBatchCoordinator(svc,
		WithOutputDir(outDir),
		WithOutputSuffix("_v2"),
	)

	summary := coordinator.Run(context.Background(), []string{input})
	require.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, filepath.Join(outDir, "contract_v2.pdf"), summary.Outcomes[0].OutputPath)
}
