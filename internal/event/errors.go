package event

import (
	"errors"
	"fmt"
)

// UnsupportedEventTypeError is returned for container actions other than
// start, stop and die.
type UnsupportedEventTypeError struct {
	EventType   EventType
	ContainerID string
}

func NewUnsupportedEventTypeError(eventType EventType, containerID string) *UnsupportedEventTypeError {
	return &UnsupportedEventTypeError{EventType: eventType, ContainerID: containerID}
}

func (e *UnsupportedEventTypeError) Error() string {
	return fmt.Sprintf("unsupported event %q for container %s", e.EventType, e.ContainerID)
}

func IsUnsupportedEventType(err error) bool {
	var target *UnsupportedEventTypeError
	return errors.As(err, &target)
}
