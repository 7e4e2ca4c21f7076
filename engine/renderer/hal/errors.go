package hal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAdapter means no adapter exposes a graphics-capable queue family.
	ErrNoAdapter = errors.New("no suitable graphics adapter found")
	// ErrNoQueueFamily means the chosen adapter has no family that can both
	// render and present to the surface.
	ErrNoQueueFamily = errors.New("no graphics queue family supports the surface")
	// ErrNoFormats means the surface reported an empty format list.
	ErrNoFormats = errors.New("surface reports no colour formats")
	// ErrNoPresentMode means none of the preferred present modes is supported.
	ErrNoPresentMode = errors.New("no preferred present mode is supported")
	// ErrNoCompositeAlpha means none of the preferred composite alpha modes is supported.
	ErrNoCompositeAlpha = errors.New("no preferred composite alpha mode is supported")
	// ErrSurfaceNotColorCapable means the surface cannot be rendered to as a
	// colour attachment.
	ErrSurfaceNotColorCapable = errors.New("surface does not support colour attachment usage")

	// ErrSwapchainOutOfDate means the swapchain no longer matches the surface
	// and must be rebuilt before any further use.
	ErrSwapchainOutOfDate = errors.New("swapchain is out of date")
	// ErrSwapchainSuboptimal means presentation still works but the swapchain
	// no longer matches the surface optimally.
	ErrSwapchainSuboptimal = errors.New("swapchain is suboptimal")
	// ErrFenceTimeout means a bounded fence wait expired.
	ErrFenceTimeout = errors.New("fence wait timed out")
)

// MissingPipelineStateError reports a pipeline build attempted without one of
// its required pieces.
type MissingPipelineStateError struct {
	Field string
}

func (e *MissingPipelineStateError) Error() string {
	return fmt.Sprintf("pipeline description incomplete: no %s specified", e.Field)
}

// ShaderCompileError reports a failed shader source compilation.
type ShaderCompileError struct {
	Name       string
	Diagnostic string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("failed to compile shader %q: %s", e.Name, e.Diagnostic)
}

// TooManyObjectsError reports a draw list exceeding the instance capacity.
type TooManyObjectsError struct {
	Requested int
	Max       int
}

func (e *TooManyObjectsError) Error() string {
	return fmt.Sprintf("draw list has %d objects, capacity is %d", e.Requested, e.Max)
}

// TooManyLightsError reports a light list exceeding the uniform capacity.
type TooManyLightsError struct {
	Requested int
	Max       int
}

func (e *TooManyLightsError) Error() string {
	return fmt.Sprintf("scene has %d lights, capacity is %d", e.Requested, e.Max)
}

// FrameStep identifies where in the per-frame sequence a failure happened.
type FrameStep int

const (
	StepAcquire FrameStep = iota
	StepFenceWait
	StepUpload
	StepRecord
	StepSubmit
	StepPresent
)

func (s FrameStep) String() string {
	switch s {
	case StepAcquire:
		return "acquire"
	case StepFenceWait:
		return "fence wait"
	case StepUpload:
		return "upload"
	case StepRecord:
		return "record"
	case StepSubmit:
		return "submit"
	case StepPresent:
		return "present"
	default:
		return "unknown"
	}
}

// FrameError wraps a failure of one step of the frame sequence.
type FrameError struct {
	Step FrameStep
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame failed at %s: %v", e.Step, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether the error only requires a swapchain rebuild
// rather than aborting the run.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSwapchainOutOfDate) || errors.Is(err, ErrSwapchainSuboptimal)
}
