// Package media classifies generated media files and muxes narration audio
// into rendered video via ffmpeg.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/logger"
)

// Combiner implements core.MediaCombiner.
type Combiner struct {
	ffmpegBinary string
	timeout      time.Duration
	threshold    int64
	log          *logger.Logger
}

// New creates a Combiner. Files larger than threshold bytes are considered
// authentic content; anything at or below it is a placeholder.
func New(ffmpegBinary string, timeout time.Duration, threshold int64, log *logger.Logger) *Combiner {
	return &Combiner{
		ffmpegBinary: ffmpegBinary,
		timeout:      timeout,
		threshold:    threshold,
		log:          log,
	}
}

// Classify reports whether the file at path holds authentic media content.
// Size is the only signal: placeholders are written small on purpose, and
// no real render or synthesis output stays under the threshold.
func (c *Combiner) Classify(path string) core.MediaClass {
	info, err := os.Stat(path)
	if err != nil {
		return core.MediaMissing
	}

	if info.Size() > c.threshold {
		return core.MediaValid
	}

	return core.MediaPlaceholder
}

// Combine muxes audioPath into videoPath, copying the video stream and
// encoding audio as AAC, trimmed to the shorter stream. A placeholder or
// missing video is returned unchanged without invoking ffmpeg, and any mux
// failure falls back to the original video so callers always receive a
// usable path.
func (c *Combiner) Combine(ctx context.Context, videoPath, audioPath, outputPath string) (string, error) {
	if c.Classify(videoPath) != core.MediaValid {
		return videoPath, nil
	}

	_, err := os.Stat(audioPath)
	if err != nil {
		return videoPath, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// #nosec G204 -- binary comes from service configuration, paths are service-owned
	cmd := exec.CommandContext(runCtx, c.ffmpegBinary,
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	)

	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		c.log.Warn("Audio/video mux failed, keeping original video %s: %v", videoPath, runErr)

		return videoPath, fmt.Errorf("%w: %v; output: %s", core.ErrCombineFailed, runErr, string(output))
	}

	_, statErr := os.Stat(outputPath)
	if statErr != nil {
		return videoPath, fmt.Errorf("%w: ffmpeg succeeded but wrote no output file", core.ErrCombineFailed)
	}

	return outputPath, nil
}
