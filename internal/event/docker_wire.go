package event

import (
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
)

func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

func fromContainerSummary(c container.Summary) ContainerEvent {
	return ContainerEvent{
		Container: Container{
			ID:      c.ID,
			Name:    containerName(c.Names),
			Created: time.Unix(c.Created, 0),
			Labels:  c.Labels,
		},
		EventType: EventTypeInitialContainerDetection,
	}
}

func fromEventsMessage(msg events.Message) (ContainerEvent, error) {
	ev := ContainerEvent{
		Container: Container{
			ID:      msg.Actor.ID,
			Name:    msg.Actor.Attributes["name"],
			Created: time.Unix(0, msg.TimeNano),
			Labels:  msg.Actor.Attributes,
		},
		EventType: EventType(msg.Action),
	}
	if !ev.EventType.IsValid() {
		return ContainerEvent{}, NewUnsupportedEventTypeError(ev.EventType, msg.Actor.ID)
	}
	return ev, nil
}
