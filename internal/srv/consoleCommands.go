package srv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mjoret/emovi/apimodel"
	"github.com/mjoret/emovi/internal/console"
	"github.com/mjoret/emovi/internal/srv/display"
	"github.com/mjoret/emovi/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// registerConsoleCommands binds the diagnostics commands to the console. The
// console itself has no data dependency on the display: every command goes
// through the event loop like an api request would.
func (s *ServerApp) registerConsoleCommands() {
	register := func(name string, help string, handler console.CommandFunc) {
		if err := s.consoleFacility.RegisterCommand(name, help, handler); err != nil {
			logrus.Warnf("Unable to register console command %q: %v", name, err)
		}
	}

	register("emotion", "set the current emotion",
		func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: emotion <name>: %w", apimodel.ErrInvalidArgument)
			}
			if !display.IsEmotionValid(args[0]) {
				return fmt.Errorf("unknown emotion %q: %w", args[0], apimodel.ErrInvalidArgument)
			}
			return s.dispatchCommand(event.CommandSetEmotionData{Name: args[0]})
		})

	register("text", "send text to a channel (user, assistant, system)",
		func(args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: text <channel> [text]: %w", apimodel.ErrInvalidArgument)
			}
			return s.dispatchCommand(event.CommandSetTextData{
				Channel: args[0],
				Text:    strings.Join(args[1:], " "),
			})
		})

	register("state", "report a system state (listening, sleep, active)",
		func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: state <state>: %w", apimodel.ErrInvalidArgument)
			}
			return s.dispatchCommand(event.CommandSystemStateData{State: args[0]})
		})

	register("event", "send a named event to the display",
		func(args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: event <name> [message]: %w", apimodel.ErrInvalidArgument)
			}
			return s.dispatchCommand(event.CommandSendEventData{
				Event:   args[0],
				Message: strings.Join(args[1:], " "),
			})
		})

	register("backlight", "set the backlight level in percent",
		func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: backlight <percent>: %w", apimodel.ErrInvalidArgument)
			}
			percent, err := strconv.ParseInt(args[0], 10, 0)
			if err != nil {
				return fmt.Errorf("percent %q: %w", args[0], apimodel.ErrInvalidArgument)
			}
			return s.dispatchCommand(event.CommandSetBacklightData{Percent: percent})
		})

	if !s.SimulationMode {
		return
	}

	register("touch", "simulate a touch contact: touch press <x> <y> | touch release",
		func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: touch press <x> <y> | touch release: %w", apimodel.ErrInvalidArgument)
			}
			switch args[0] {
			case "press":
				if len(args) != 3 {
					return fmt.Errorf("usage: touch press <x> <y>: %w", apimodel.ErrInvalidArgument)
				}
				x, errX := strconv.Atoi(args[1])
				y, errY := strconv.Atoi(args[2])
				if errX != nil || errY != nil {
					return fmt.Errorf("coordinates %q %q: %w", args[1], args[2], apimodel.ErrInvalidArgument)
				}
				s.simSampler.SetContact(true, x, y)
				return nil
			case "release":
				s.simSampler.SetContact(false, 0, 0)
				return nil
			default:
				return fmt.Errorf("touch %q: %w", args[0], apimodel.ErrInvalidArgument)
			}
		})

	register("wifi", "simulate station connectivity: wifi up | wifi down",
		func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: wifi up|down: %w", apimodel.ErrInvalidArgument)
			}
			switch args[0] {
			case "up":
				s.networkDevice.SetConnected(true)
				return nil
			case "down":
				s.networkDevice.SetConnected(false)
				return nil
			default:
				return fmt.Errorf("wifi %q: %w", args[0], apimodel.ErrInvalidArgument)
			}
		})
}
