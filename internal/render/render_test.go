// Package render_test tests the animation render adapter.
package render_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/lesson-service/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneName_DeclaredClass(t *testing.T) {
	t.Parallel()

	sceneCode := `from manim import *

class WaterCycleScene(Scene):
    def construct(self):
        pass
`

	assert.Equal(t, "WaterCycleScene", render.SceneName(sceneCode))
}

func TestSceneName_FirstOfSeveral(t *testing.T) {
	t.Parallel()

	sceneCode := "class First(Scene):\n    pass\n\nclass Second(Scene):\n    pass\n"

	assert.Equal(t, "First", render.SceneName(sceneCode))
}

func TestSceneName_NoDeclarationFallsBack(t *testing.T) {
	t.Parallel()

	assert.Equal(t, render.DefaultSceneName, render.SceneName("print('not a scene')"))
	assert.Equal(t, render.DefaultSceneName, render.SceneName(""))
}

func TestRender_MissingBinaryWritesPlaceholder(t *testing.T) {
	t.Parallel()

	testLogger, err := logger.New(t.TempDir(), "render-test.log")
	require.NoError(t, err)

	renderer := render.New("definitely-not-a-real-render-binary", 5*time.Second, testLogger)
	outputDir := t.TempDir()

	result := renderer.Render(context.Background(), "class TitleScene(Scene): pass", "lesson_visual", outputDir)

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, core.ErrRenderDependency)
	assert.Equal(t, "TitleScene", result.SceneName)

	// A playable placeholder must exist at the target path regardless.
	info, statErr := os.Stat(result.Path)
	require.NoError(t, statErr)
	assert.Positive(t, info.Size())
	assert.Equal(t, filepath.Join(outputDir, "lesson_visual.mp4"), result.Path)

	data, readErr := os.ReadFile(result.Path)
	require.NoError(t, readErr)
	assert.Equal(t, []byte("ftyp"), data[4:8])
}

func TestWritePlaceholder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "placeholder.mp4")

	err := render.WritePlaceholder(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(10_000))
}
