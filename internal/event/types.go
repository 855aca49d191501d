package event

import "time"

type EventType string

const (
	EventTypeContainerDied             EventType = "die"
	EventTypeContainerStarted          EventType = "start"
	EventTypeContainerStopped          EventType = "stop"
	EventTypeInitialContainerDetection EventType = "initial_detection"
)

func (et EventType) IsValid() bool {
	switch et {
	case EventTypeContainerDied,
		EventTypeContainerStarted,
		EventTypeContainerStopped,
		EventTypeInitialContainerDetection:
		return true
	}
	return false
}

type Container struct {
	ID      string
	Name    string
	Created time.Time // when the event was emitted or the container was created
	Labels  map[string]string
}

type ContainerEvent struct {
	Container Container
	EventType EventType
}

// Running reports whether the event shows the container up.
func (e ContainerEvent) Running() bool {
	return e.EventType == EventTypeContainerStarted || e.EventType == EventTypeInitialContainerDetection
}
