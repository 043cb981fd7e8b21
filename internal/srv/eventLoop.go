package srv

import (
	"fmt"

	"github.com/mjoret/emovi/apimodel"
	"github.com/mjoret/emovi/internal/srv/display"
	"github.com/mjoret/emovi/internal/srv/event"
	"github.com/sirupsen/logrus"
)

func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case ev := <-s.internalEventChannel:
			switch ev.Data.(type) {
			case event.InternalEventIdleTimeoutData:
				logrus.Debugf("Receive idle timeout event")
				s.backlightDevice.Dim()
				if err := s.displayController.OnSystemStateChanged(display.SYSTEM_STATE_SLEEP); err != nil {
					logrus.Warn(err)
				}
			}
		case activity := <-s.displayController.ActivityChannel():
			logrus.Debugf("Receive activity event: active=%v", activity.Active)
			if activity.Active {
				s.backlightDevice.Restore()
				if err := s.displayController.OnSystemStateChanged(display.SYSTEM_STATE_ACTIVE); err != nil {
					logrus.Warn(err)
				}
			}
			s.armIdleTimer()
		case ev := <-s.apiDevice.EventChannel():
			ev.Result <- s.executeCommand(ev.Data)
		case ev := <-s.commandChannel:
			ev.Result <- s.executeCommand(ev.Data)
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}

// executeCommand runs one display command on behalf of the api device or the
// console. All producers funnel through the event loop, so the commands are
// serialized here.
func (s *ServerApp) executeCommand(data interface{}) error {
	switch data := data.(type) {
	case event.CommandSetEmotionData:
		return s.displayController.SetEmotion(data.Name)
	case event.CommandSetTextData:
		channel, err := display.ParseTextChannel(data.Channel)
		if err != nil {
			return err
		}
		return s.displayController.SetText(channel, data.Text)
	case event.CommandSystemStateData:
		state, err := display.ParseSystemState(data.State)
		if err != nil {
			return err
		}
		return s.displayController.OnSystemStateChanged(state)
	case event.CommandSendEventData:
		return s.displayController.SendEvent(data.Event, data.Message)
	case event.CommandSetBacklightData:
		return s.backlightDevice.SetBrightness(data.Percent)
	default:
		return fmt.Errorf("command %T: %w", data, apimodel.ErrInvalidArgument)
	}
}

// dispatchCommand queues a command on the event loop and waits for its
// outcome.
func (s *ServerApp) dispatchCommand(data interface{}) error {
	result := make(chan error)
	s.commandChannel <- event.CommandEvent{Result: result, Data: data}
	return <-result
}
