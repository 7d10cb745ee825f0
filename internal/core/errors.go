package core

import "errors"

// Pipeline failure classes. Stage failures inside variant generation are
// absorbed into fallbacks or placeholders; only the generative adapter and
// the orchestrator surface these to callers.
var (
	// ErrTransport indicates the generative backend could not be reached or
	// returned a request-level failure after all retry attempts.
	ErrTransport = errors.New("generative transport failure")
	// ErrEmptyResponse indicates a well-formed generative response carried no
	// usable text parts.
	ErrEmptyResponse = errors.New("generative response contained no text")
	// ErrStructureRepair indicates a model response could not be coerced into
	// valid structured data even after repair.
	ErrStructureRepair = errors.New("structured response could not be repaired")
	// ErrRenderFailed indicates the animation render subprocess failed,
	// timed out, or produced no output file.
	ErrRenderFailed = errors.New("animation render failed")
	// ErrRenderDependency indicates the render toolchain is missing a system
	// dependency (renderer binary or LaTeX).
	ErrRenderDependency = errors.New("animation render missing system dependency")
	// ErrCombineFailed indicates the audio/video mux subprocess failed or
	// timed out.
	ErrCombineFailed = errors.New("audio/video combination failed")
	// ErrNoSourceText indicates an assignment had neither pasted content nor
	// extractable file content.
	ErrNoSourceText = errors.New("assignment has no source text")
)
