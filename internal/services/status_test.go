package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/pdf-replacer/internal/models"
	"github.com/fyerfyer/pdf-replacer/internal/repository"
)

func setupStatusManager(t *testing.T) *JobStatusManager {
	t.Helper()

	dbName := fmt.Sprintf("file:memdb_status_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	err = db.AutoMigrate(&models.ReplaceJob{}, &models.DocumentResult{})
	require.NoError(t, err, "Failed to run migrations")

	repo := repository.NewJobRepositoryWithDB(db)
	return NewJobStatusManager(repo, nil)
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	manager := setupStatusManager(t)

	job := &models.ReplaceJob{
		ID:            "job-1",
		MappingPath:   "table.csv",
		OutputDir:     "out",
		DocumentCount: 2,
	}
	require.NoError(t, manager.CreateJob(ctx, job))

	got, err := manager.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)

	require.NoError(t, manager.MarkAsProcessing(ctx, "job-1"))

	summary := BatchSummary{Total: 2, Succeeded: 2, Replacements: 5}
	require.NoError(t, manager.MarkAsCompleted(ctx, "job-1", summary))

	got, err = manager.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, 2, got.SucceededCount)
	assert.Equal(t, 5, got.ReplacementCount)

	// 完成落盘后两个时间戳都必须存活
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.FinishedAt)
}

func TestJobInvalidTransition(t *testing.T) {
	ctx := context.Background()
	manager := setupStatusManager(t)

	require.NoError(t, manager.CreateJob(ctx, &models.ReplaceJob{
		ID:          "job-1",
		MappingPath: "table.csv",
		OutputDir:   "out",
	}))

	// pending不能直接变为completed
	err := manager.MarkAsCompleted(ctx, "job-1", BatchSummary{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidJobStatus))

	// completed是终态
	require.NoError(t, manager.MarkAsProcessing(ctx, "job-1"))
	require.NoError(t, manager.MarkAsCompleted(ctx, "job-1", BatchSummary{}))
	err = manager.MarkAsProcessing(ctx, "job-1")
	assert.True(t, errors.Is(err, models.ErrInvalidJobStatus))
}

func TestJobMarkAsFailed(t *testing.T) {
	ctx := context.Background()
	manager := setupStatusManager(t)

	require.NoError(t, manager.CreateJob(ctx, &models.ReplaceJob{
		ID:          "job-1",
		MappingPath: "table.csv",
		OutputDir:   "out",
	}))
	require.NoError(t, manager.MarkAsProcessing(ctx, "job-1"))
	require.NoError(t, manager.MarkAsFailed(ctx, "job-1", "mapping file unreadable"))

	got, err := manager.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, "mapping file unreadable", got.Error)

	// 失败的任务允许重试
	require.NoError(t, manager.MarkAsProcessing(ctx, "job-1"))
}

func TestJobMarkAsCanceled(t *testing.T) {
	ctx := context.Background()
	manager := setupStatusManager(t)

	require.NoError(t, manager.CreateJob(ctx, &models.ReplaceJob{
		ID:          "job-1",
		MappingPath: "table.csv",
		OutputDir:   "out",
	}))
	require.NoError(t, manager.MarkAsCanceled(ctx, "job-1"))

	got, err := manager.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCanceled, got.Status)
}

func TestJobSaveOutcomes(t *testing.T) {
	ctx := context.Background()
	manager := setupStatusManager(t)

	require.NoError(t, manager.CreateJob(ctx, &models.ReplaceJob{
		ID:          "job-1",
		MappingPath: "table.csv",
		OutputDir:   "out",
	}))

	outcomes := []DocumentOutcome{
		{
			InputPath:  "in/a.pdf",
			OutputPath: "out/a_updated.pdf",
			Result: &Result{
				DocumentID:   "doc-a",
				Pages:        2,
				Replacements: 4,
			},
		},
		{
			InputPath: "in/b.pdf",
			Err:       errors.New("failed to read document"),
		},
	}
	require.NoError(t, manager.SaveOutcomes(ctx, "job-1", outcomes))

	results, err := manager.repo.GetResults("job-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, models.JobStatusCompleted, results[0].Status)
	assert.Equal(t, 4, results[0].Replacements)
	assert.Equal(t, models.JobStatusFailed, results[1].Status)
	assert.Equal(t, "failed to read document", results[1].Error)
}

func TestJobListJobs(t *testing.T) {
	ctx := context.Background()
	manager := setupStatusManager(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, manager.CreateJob(ctx, &models.ReplaceJob{
			ID:          fmt.Sprintf("job-%d", i),
			MappingPath: "table.csv",
			OutputDir:   "out",
		}))
	}

	jobs, total, err := manager.ListJobs(ctx, 0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, jobs, 3)
}
