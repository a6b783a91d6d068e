package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/pdf-replacer/internal/database"
	"github.com/fyerfyer/pdf-replacer/internal/models"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	// 使用唯一的内存数据库标识符
	dbName := fmt.Sprintf("file:memdb_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	// 运行迁移以创建所需的表
	err = db.AutoMigrate(&models.ReplaceJob{}, &models.DocumentResult{})
	require.NoError(t, err, "Failed to run migrations")

	// 保存原始全局DB引用并替换为测试DB
	originalDB := database.DB
	database.DB = db

	cleanup := func() {
		database.DB = originalDB
	}

	return db, cleanup
}

func newTestJob(id string) *models.ReplaceJob {
	return &models.ReplaceJob{
		ID:            id,
		MappingPath:   "mappings/table.csv",
		MappingDigest: "abc123",
		OutputDir:     "out",
		Status:        models.JobStatusPending,
		DocumentCount: 2,
	}
}

func TestJobRepository_CreateAndGet(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	job := newTestJob("job-1")
	require.NoError(t, repo.CreateJob(job))

	got, err := repo.GetJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, "mappings/table.csv", got.MappingPath)
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.False(t, got.CreatedAt.IsZero(), "创建时间应由钩子自动设置")
}

func TestJobRepository_CreateGeneratesID(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	job := newTestJob("")
	require.NoError(t, repo.CreateJob(job))
	assert.NotEmpty(t, job.ID, "未指定ID时应自动生成")
}

func TestJobRepository_GetNotFound(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	_, err := repo.GetJob("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestJobRepository_ListJobs(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()

	for i := 0; i < 3; i++ {
		job := newTestJob(fmt.Sprintf("job-%d", i))
		if i == 2 {
			job.Status = models.JobStatusCompleted
		}
		require.NoError(t, repo.CreateJob(job))
	}

	all, total, err := repo.ListJobs(0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	completed, total, err := repo.ListJobs(0, 10, models.JobStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, completed, 1)
	assert.Equal(t, "job-2", completed[0].ID)
}

func TestJobRepository_UpdateStatus(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()
	require.NoError(t, repo.CreateJob(newTestJob("job-1")))

	require.NoError(t, repo.UpdateJobStatus("job-1", models.JobStatusProcessing, ""))
	got, err := repo.GetJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, got.Status)
	assert.NotNil(t, got.StartedAt)

	require.NoError(t, repo.UpdateJobStatus("job-1", models.JobStatusFailed, "boom"))
	got, err = repo.GetJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
	assert.NotNil(t, got.FinishedAt)
}

func TestJobRepository_UpdateStatusNotFound(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()
	err := repo.UpdateJobStatus("missing", models.JobStatusCompleted, "")
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestJobRepository_Results(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()
	require.NoError(t, repo.CreateJob(newTestJob("job-1")))

	results := []*models.DocumentResult{
		{
			JobID:        "job-1",
			DocumentID:   "doc-1",
			InputPath:    "in/a.pdf",
			OutputPath:   "out/a.pdf",
			Status:       models.JobStatusCompleted,
			Pages:        3,
			Replacements: 7,
		},
		{
			JobID:      "job-1",
			DocumentID: "doc-2",
			InputPath:  "in/b.pdf",
			Status:     models.JobStatusFailed,
			Error:      "failed to read document",
		},
	}
	require.NoError(t, repo.SaveResults(results))

	got, err := repo.GetResults("job-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "doc-1", got[0].DocumentID)
	assert.Equal(t, 7, got[0].Replacements)

	failed, err := repo.CountResults("job-1", models.JobStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), failed)

	total, err := repo.CountResults("job-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestJobRepository_DeleteJob(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository()
	require.NoError(t, repo.CreateJob(newTestJob("job-1")))
	require.NoError(t, repo.SaveResult(&models.DocumentResult{
		JobID:      "job-1",
		DocumentID: "doc-1",
		InputPath:  "in/a.pdf",
		Status:     models.JobStatusCompleted,
	}))

	require.NoError(t, repo.DeleteJob("job-1"))

	_, err := repo.GetJob("job-1")
	assert.ErrorIs(t, err, models.ErrJobNotFound)

	results, err := repo.GetResults("job-1")
	require.NoError(t, err)
	assert.Empty(t, results, "删除任务时应级联删除文档结果")
}

func TestJobRepository_WithContext(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewJobRepository().WithContext(context.Background())
	require.NoError(t, repo.CreateJob(newTestJob("job-ctx")))

	got, err := repo.GetJob("job-ctx")
	require.NoError(t, err)
	assert.Equal(t, "job-ctx", got.ID)
}
