package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFetch               = errors.New("model artifact download failed")
	ErrModelFormat         = errors.New("model artifact could not be loaded")
	ErrIncompatibleRuntime = errors.New("model artifact is incompatible with this runtime")
	ErrInvalidImage        = errors.New("image could not be decoded")
)

const incompatibleGuidance = `This model was exported for a runtime this machine cannot provide.

Models exported with GPU-only operators or execution providers will not run in a
CPU environment, and artifacts built against a newer ONNX opset need a matching
onnxruntime shared library.

Re-export the model for CPU inference (or upgrade onnxruntime and point
ONNX_LIBRARY at it), then restart the server.`

// IncompatibleRuntimeError is returned when the artifact itself is fine but the
// local runtime cannot execute it.
type IncompatibleRuntimeError struct {
	Guidance string
	Err      error
}

func (e *IncompatibleRuntimeError) Error() string {
	return ErrIncompatibleRuntime.Error() + ": " + e.Err.Error()
}

func (e *IncompatibleRuntimeError) Unwrap() error { return e.Err }

func (e *IncompatibleRuntimeError) Is(target error) bool {
	return target == ErrIncompatibleRuntime
}

var runtimeMismatchMarkers = []string{
	"cuda",
	"gpu",
	"executionprovider",
	"execution provider",
	"cpu-only",
	"opset",
	"ir version",
	"error loading onnx shared library",
	"cannot open shared object file",
}

// classifyLoadError separates runtime mismatches from broken artifacts.
func classifyLoadError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range runtimeMismatchMarkers {
		if strings.Contains(msg, marker) {
			return &IncompatibleRuntimeError{Guidance: incompatibleGuidance, Err: err}
		}
	}
	return fmt.Errorf("%w: %w", ErrModelFormat, err)
}
