// Package store_test tests assignment persistence.
package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/lesson-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(t *testing.T) *store.AssignmentRepository {
	t.Helper()

	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	return store.NewAssignmentRepository(db)
}

func newAssignment() *store.Assignment {
	return &store.Assignment{
		Title:           "The Water Cycle",
		Subject:         string(core.SubjectScience),
		OriginalContent: "Water evaporates, condenses, and falls as rain.",
		Status:          string(core.StatusPending),
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := store.Open("oracle", "dsn")
	require.ErrorIs(t, err, store.ErrUnsupportedDriver)
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()

	assignment := newAssignment()
	err := repo.Create(ctx, assignment)
	require.NoError(t, err)
	require.NotEmpty(t, assignment.ID)

	loaded, err := repo.Get(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Water Cycle", loaded.Title)
	assert.Equal(t, string(core.StatusPending), loaded.Status)
	assert.Empty(t, loaded.Variants)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)

	_, err := repo.Get(context.Background(), "no-such-id")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()

	assignment := newAssignment()
	require.NoError(t, repo.Create(ctx, assignment))

	err := repo.UpdateStatus(ctx, assignment.ID, core.StatusFailed, "no source text")
	require.NoError(t, err)

	loaded, err := repo.Get(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, string(core.StatusFailed), loaded.Status)
	assert.Equal(t, "no source text", loaded.ErrorMessage)

	// Moving out of failed clears the stored message.
	err = repo.UpdateStatus(ctx, assignment.ID, core.StatusReady, "stale")
	require.NoError(t, err)

	loaded, err = repo.Get(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, string(core.StatusReady), loaded.Status)
	assert.Empty(t, loaded.ErrorMessage)
}

func TestUpsertVariant_ReplacesExistingRow(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()

	assignment := newAssignment()
	require.NoError(t, repo.Create(ctx, assignment))

	first := &store.AssignmentVariant{
		AssignmentID: assignment.ID,
		VariantType:  string(core.VariantQuiz),
		Subject:      assignment.Subject,
		ContentText:  `{"quiz_type": "practice_repeatable", "questions": []}`,
		Ready:        true,
	}
	require.NoError(t, repo.UpsertVariant(ctx, first))

	second := &store.AssignmentVariant{
		AssignmentID: assignment.ID,
		VariantType:  string(core.VariantQuiz),
		Subject:      assignment.Subject,
		ContentText:  `{"quiz_type": "practice_repeatable", "questions": [{"question": "q1"}]}`,
		Ready:        true,
	}
	require.NoError(t, repo.UpsertVariant(ctx, second))

	loaded, err := repo.Get(ctx, assignment.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Variants, 1)
	assert.Contains(t, loaded.Variants[0].ContentText, "q1")
}

func TestGetVariant(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()

	assignment := newAssignment()
	require.NoError(t, repo.Create(ctx, assignment))

	variant := &store.AssignmentVariant{
		AssignmentID: assignment.ID,
		VariantType:  string(core.VariantSimplified),
		ContentText:  `{"text": "simple"}`,
		Ready:        true,
	}
	require.NoError(t, repo.UpsertVariant(ctx, variant))

	loaded, err := repo.GetVariant(ctx, assignment.ID, core.VariantSimplified)
	require.NoError(t, err)
	assert.Equal(t, `{"text": "simple"}`, loaded.ContentText)

	_, err = repo.GetVariant(ctx, assignment.ID, core.VariantVisual)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestVariantAssets(t *testing.T) {
	t.Parallel()

	variant := &store.AssignmentVariant{}

	err := variant.SetAssets(map[string]string{
		"audio": "abc-123/podcast.mp3",
		"video": "abc-123/visual.mp4",
	})
	require.NoError(t, err)

	urls, err := variant.AssetURLs()
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc-123/podcast.mp3", urls["audio"])
	assert.Equal(t, "/uploads/abc-123/visual.mp4", urls["video"])
}

func TestVariantAssets_EmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	variant := &store.AssignmentVariant{}

	assets, err := variant.AssetMap()
	require.NoError(t, err)
	assert.Empty(t, assets)
}
