package display

import (
	"fmt"

	"github.com/mjoret/emovi/apimodel"
)

// TextChannel routes a text update to its rendering target.
type TextChannel int

const (
	TEXT_CHANNEL_USER TextChannel = iota
	TEXT_CHANNEL_ASSISTANT
	TEXT_CHANNEL_SYSTEM
)

func ParseTextChannel(name string) (TextChannel, error) {
	switch name {
	case "user":
		return TEXT_CHANNEL_USER, nil
	case "assistant":
		return TEXT_CHANNEL_ASSISTANT, nil
	case "system":
		return TEXT_CHANNEL_SYSTEM, nil
	default:
		return 0, fmt.Errorf("text channel %q: %w", name, apimodel.ErrInvalidArgument)
	}
}

// SystemState is the device-level state reported by the application layer.
type SystemState int

const (
	SYSTEM_STATE_LISTENING SystemState = iota
	SYSTEM_STATE_SLEEP
	SYSTEM_STATE_ACTIVE
)

func ParseSystemState(name string) (SystemState, error) {
	switch name {
	case "listening":
		return SYSTEM_STATE_LISTENING, nil
	case "sleep":
		return SYSTEM_STATE_SLEEP, nil
	case "active":
		return SYSTEM_STATE_ACTIVE, nil
	default:
		return 0, fmt.Errorf("system state %q: %w", name, apimodel.ErrInvalidArgument)
	}
}
