// Package render provides the animation render adapter. It drives the manim
// CLI as a subprocess, locates the video it produces, and guarantees that a
// video file exists at the target path even when the render fails.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/logger"
)

// DefaultSceneName is used when scene code declares no recognizable scene
// class.
const DefaultSceneName = "TitleScene"

const (
	sceneFileName  = "scene.py"
	videoExtension = ".mp4"
)

// mediaOutputDir is where manim places low-quality renders of a script named
// scene.py.
var mediaOutputDir = filepath.Join("media", "videos", "scene", "480p15")

var scenePattern = regexp.MustCompile(`class\s+(\w+)\s*\(Scene\)`)

// placeholderVideo is a minimal MP4: an ftyp box declaring isom and an empty
// free box. Players open it without error, and its size keeps it well under
// the media validity threshold.
var placeholderVideo = []byte{
	0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'i', 's', 'o', '2',
	'a', 'v', 'c', '1', 'm', 'p', '4', '1',
	0x00, 0x00, 0x00, 0x08, 'f', 'r', 'e', 'e',
}

// Renderer implements core.VideoRenderer by invoking the manim binary.
type Renderer struct {
	binary  string
	timeout time.Duration
	log     *logger.Logger
}

// New creates a Renderer that invokes the given binary with the given
// per-render timeout.
func New(binary string, timeout time.Duration, log *logger.Logger) *Renderer {
	return &Renderer{
		binary:  binary,
		timeout: timeout,
		log:     log,
	}
}

// SceneName extracts the first scene class name declared in scene code.
// Scene code without a recognizable declaration renders DefaultSceneName,
// which the fallback scene code always declares.
func SceneName(sceneCode string) string {
	match := scenePattern.FindStringSubmatch(sceneCode)
	if match == nil {
		return DefaultSceneName
	}

	return match[1]
}

// Render writes sceneCode to a scratch directory, invokes manim on it, and
// copies the rendered video to outputDir under outputName. Every failure
// mode (missing binary, missing LaTeX, timeout, non-zero exit, no output
// file) leaves a placeholder video at the target path and reports the cause
// in the result.
func (r *Renderer) Render(ctx context.Context, sceneCode, outputName, outputDir string) core.RenderResult {
	sceneName := SceneName(sceneCode)
	targetPath := filepath.Join(outputDir, outputName+videoExtension)

	workDir, err := os.MkdirTemp("", "lesson-render-*")
	if err != nil {
		return r.placeholderResult(targetPath, sceneName,
			fmt.Errorf("failed to create render scratch directory: %w", err))
	}

	defer func() {
		removeErr := os.RemoveAll(workDir)
		if removeErr != nil {
			r.log.Warn("Failed to remove render scratch directory '%s': %v", workDir, removeErr)
		}
	}()

	scenePath := filepath.Join(workDir, sceneFileName)

	err = os.WriteFile(scenePath, []byte(sceneCode), 0o600)
	if err != nil {
		return r.placeholderResult(targetPath, sceneName,
			fmt.Errorf("failed to write scene file: %w", err))
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// #nosec G204 -- binary comes from service configuration, scene name from a constrained regex
	cmd := exec.CommandContext(runCtx, r.binary,
		"-ql", "--disable_caching", "-o", outputName, scenePath, sceneName)
	cmd.Dir = workDir

	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		return r.placeholderResult(targetPath, sceneName,
			r.classifyFailure(runCtx, runErr, output))
	}

	renderedPath, findErr := r.findRenderedVideo(workDir, outputName)
	if findErr != nil {
		return r.placeholderResult(targetPath, sceneName, findErr)
	}

	copyErr := copyFile(renderedPath, targetPath)
	if copyErr != nil {
		return r.placeholderResult(targetPath, sceneName, copyErr)
	}

	return core.RenderResult{
		Path:      targetPath,
		SceneName: sceneName,
		Err:       nil,
	}
}

// classifyFailure maps a subprocess failure to the pipeline error taxonomy.
// A missing binary and a missing LaTeX installation are environment
// problems worth distinguishing from bad scene code.
func (r *Renderer) classifyFailure(ctx context.Context, runErr error, output []byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: render timed out after %s", core.ErrRenderFailed, r.timeout)
	}

	if errors.Is(runErr, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s binary not found on PATH", core.ErrRenderDependency, r.binary)
	}

	if strings.Contains(strings.ToLower(string(output)), "latex") {
		return fmt.Errorf("%w: LaTeX unavailable; output: %s",
			core.ErrRenderDependency, truncateOutput(output))
	}

	return fmt.Errorf("%w: %v; output: %s", core.ErrRenderFailed, runErr, truncateOutput(output))
}

// findRenderedVideo locates the expected output file, falling back to the
// newest video under the media directory when manim picked its own name.
func (r *Renderer) findRenderedVideo(workDir, outputName string) (string, error) {
	expected := filepath.Join(workDir, mediaOutputDir, outputName+videoExtension)

	_, err := os.Stat(expected)
	if err == nil {
		return expected, nil
	}

	newest, found := newestFileWithExt(filepath.Join(workDir, "media"), videoExtension)
	if !found {
		return "", fmt.Errorf("%w: render completed but produced no video file", core.ErrRenderFailed)
	}

	return newest, nil
}

// newestFileWithExt walks root and returns the most recently modified file
// with the given extension.
func newestFileWithExt(root, ext string) (string, bool) {
	type candidate struct {
		path    string
		modTime time.Time
	}

	var candidates []candidate

	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		if strings.EqualFold(filepath.Ext(path), ext) {
			candidates = append(candidates, candidate{path: path, modTime: info.ModTime()})
		}

		return nil
	})

	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})

	return candidates[0].path, true
}

func (r *Renderer) placeholderResult(targetPath, sceneName string, cause error) core.RenderResult {
	r.log.Warn("Render failed, writing placeholder to %s: %v", targetPath, cause)

	writeErr := WritePlaceholder(targetPath)
	if writeErr != nil {
		r.log.Error("Failed to write placeholder video to %s: %v", targetPath, writeErr)
	}

	return core.RenderResult{
		Path:      targetPath,
		SceneName: sceneName,
		Err:       cause,
	}
}

// WritePlaceholder writes a minimal valid MP4 file to path.
func WritePlaceholder(path string) error {
	err := os.WriteFile(path, placeholderVideo, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write placeholder video to %s: %w", path, err)
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read rendered video %s: %w", src, err)
	}

	err = os.WriteFile(dst, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to copy rendered video to %s: %w", dst, err)
	}

	return nil
}

func truncateOutput(output []byte) string {
	const maxOutput = 1000

	text := string(output)
	if len(text) > maxOutput {
		return text[len(text)-maxOutput:]
	}

	return text
}
