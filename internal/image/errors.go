package image

import (
	"fmt"
	"strings"
)

// MismatchError lists every way a running container differs from the image spec.
type MismatchError struct {
	Container  string
	Mismatches []string
}

func NewMismatchError(container string, mismatches []string) *MismatchError {
	return &MismatchError{Container: container, Mismatches: mismatches}
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("container %s does not match the image spec: %s", e.Container, strings.Join(e.Mismatches, "; "))
}

// BuildError is a failure reported by the engine in the build output stream.
type BuildError struct {
	Tag     string
	Message string
}

func NewBuildError(tag, message string) *BuildError {
	return &BuildError{Tag: tag, Message: message}
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build of %s failed: %s", e.Tag, e.Message)
}
