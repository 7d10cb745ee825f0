// Package media_test tests media classification and audio/video combination.
package media_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/lesson-service/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testThreshold = 10_000

func newCombiner(t *testing.T, binary string) *media.Combiner {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "media-test.log")
	require.NoError(t, err)

	return media.New(binary, 5*time.Second, testThreshold, testLogger)
}

func writeSized(t *testing.T, dir, name string, size int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.WriteFile(path, make([]byte, size), 0o600)
	require.NoError(t, err)

	return path
}

func TestClassify(t *testing.T) {
	t.Parallel()

	combiner := newCombiner(t, "ffmpeg")
	dir := t.TempDir()

	small := writeSized(t, dir, "small.mp4", 200)
	boundary := writeSized(t, dir, "boundary.mp4", testThreshold)
	large := writeSized(t, dir, "large.mp4", testThreshold+1)

	assert.Equal(t, core.MediaPlaceholder, combiner.Classify(small))
	assert.Equal(t, core.MediaPlaceholder, combiner.Classify(boundary))
	assert.Equal(t, core.MediaValid, combiner.Classify(large))
	assert.Equal(t, core.MediaMissing, combiner.Classify(filepath.Join(dir, "absent.mp4")))
}

func TestCombine_PlaceholderVideoSkipsMux(t *testing.T) {
	t.Parallel()

	// A missing binary would fail loudly if the mux were attempted.
	combiner := newCombiner(t, "definitely-not-ffmpeg")
	dir := t.TempDir()

	video := writeSized(t, dir, "video.mp4", 500)
	audio := writeSized(t, dir, "audio.mp3", 500)

	result, err := combiner.Combine(context.Background(), video, audio, filepath.Join(dir, "out.mp4"))
	require.NoError(t, err)
	assert.Equal(t, video, result)
}

func TestCombine_MissingAudioSkipsMux(t *testing.T) {
	t.Parallel()

	combiner := newCombiner(t, "definitely-not-ffmpeg")
	dir := t.TempDir()

	video := writeSized(t, dir, "video.mp4", testThreshold+1)

	result, err := combiner.Combine(
		context.Background(), video, filepath.Join(dir, "absent.mp3"), filepath.Join(dir, "out.mp4"),
	)
	require.NoError(t, err)
	assert.Equal(t, video, result)
}

func TestCombine_MuxFailureFallsBackToVideo(t *testing.T) {
	t.Parallel()

	combiner := newCombiner(t, "definitely-not-ffmpeg")
	dir := t.TempDir()

	video := writeSized(t, dir, "video.mp4", testThreshold+1)
	audio := writeSized(t, dir, "audio.mp3", 500)

	result, err := combiner.Combine(context.Background(), video, audio, filepath.Join(dir, "out.mp4"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCombineFailed)
	assert.Equal(t, video, result)
}
