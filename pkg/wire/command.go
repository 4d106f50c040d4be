package wire

// Command names understood by the reference host.
const (
	CommandMoveRelative = "mouse_move_relative"
	CommandClick        = "click"
	CommandScroll       = "scroll"
	CommandTypeText     = "type_text"
	CommandKeyPress     = "key_press"
	CommandMedia        = "media"
	CommandVolume       = "volume"
	CommandPing         = "ping"
)

// Mouse buttons.
const (
	ButtonLeft  = "left"
	ButtonRight = "right"
)

// Scroll directions.
const (
	ScrollUp   = "up"
	ScrollDown = "down"
)

// Media actions.
const (
	MediaPlayPause = "play_pause"
	MediaNext      = "next"
	MediaPrevious  = "previous"
)

// Volume actions.
const (
	VolumeUp   = "up"
	VolumeDown = "down"
	VolumeMute = "mute"
)

// MoveRelative is the payload of mouse_move_relative.
type MoveRelative struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Click is the payload of click.
type Click struct {
	Button string `json:"button"`
}

// Scroll is the payload of scroll.
type Scroll struct {
	Direction string `json:"direction"`
}

// TypeText is the payload of type_text.
type TypeText struct {
	Text string `json:"text"`
}

// KeyPress is the payload of key_press.
type KeyPress struct {
	Key string `json:"key"`
}

// Media is the payload of media.
type Media struct {
	Action string `json:"action"`
}

// Volume is the payload of volume.
type Volume struct {
	Action string `json:"action"`
}

// KnownCommand reports whether the reference host understands name.
func KnownCommand(name string) bool {
	switch name {
	case CommandMoveRelative, CommandClick, CommandScroll, CommandTypeText,
		CommandKeyPress, CommandMedia, CommandVolume, CommandPing:
		return true
	}
	return false
}
