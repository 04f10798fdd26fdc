package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aristath/htse/internal/events"
)

// Stream writes one line per event from sub until the run finishes or the
// channel is closed. It is the non-interactive counterpart of Model.
func Stream(w io.Writer, sub <-chan events.Event) error {
	for event := range sub {
		line, done := streamLine(event)
		if line != "" {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if done {
			return nil
		}
	}
	return nil
}

func streamLine(event events.Event) (string, bool) {
	switch e := event.(type) {
	case events.TaskStartedEvent:
		return fmt.Sprintf("%s%s Task %d: %s", indent(e.Depth), StyleStatusRunning.Render("[RUNNING]"), e.ID, e.Name), false
	case events.TaskCompletedEvent:
		return fmt.Sprintf("%s%s Task %d: %s (%du)", indent(e.Depth), StyleStatusComplete.Render("[DONE]"), e.ID, e.Name, e.Cost), false
	case events.TaskDeferredEvent:
		return fmt.Sprintf("  %s Task %d: %s waits on dependencies", StyleStatusDeferred.Render("[WAIT]"), e.ID, e.Name), false
	case events.PassCompletedEvent:
		return StyleStatusPending.Render(fmt.Sprintf("-- pass %d done, %d deferred", e.Pass, e.Deferred)), false
	case events.RunStalledEvent:
		return StyleStatusFailed.Render(fmt.Sprintf("[WARNING] no further progress possible, %d task(s) not ready", len(e.Stalled))), false
	case events.RunFinishedEvent:
		return "", true
	}
	return "", false
}

func indent(depth int) string {
	return strings.Repeat("   ", depth+1)
}
