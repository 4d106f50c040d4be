package host

import (
	"context"
	"errors"
	"log/slog"
)

// ErrUnsupported is returned by executors that cannot perform an action on
// this platform.
var ErrUnsupported = errors.New("not supported on this host")

// Executor performs validated commands.
type Executor interface {
	MoveRelative(ctx context.Context, dx, dy int) error
	Click(ctx context.Context, button string) error
	Scroll(ctx context.Context, direction string) error
	TypeText(ctx context.Context, text string) error
	KeyPress(ctx context.Context, key string) error
	Media(ctx context.Context, action string) error
	Volume(ctx context.Context, action string) error
}

// LogExecutor logs each command instead of performing it.
type LogExecutor struct {
	logger *slog.Logger
}

// NewLogExecutor creates a LogExecutor writing to logger (nil: slog.Default()).
func NewLogExecutor(logger *slog.Logger) *LogExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogExecutor{logger: logger.With("component", "executor")}
}

func (e *LogExecutor) MoveRelative(ctx context.Context, dx, dy int) error {
	e.logger.DebugContext(ctx, "move", "dx", dx, "dy", dy)
	return nil
}

func (e *LogExecutor) Click(ctx context.Context, button string) error {
	e.logger.InfoContext(ctx, "click", "button", button)
	return nil
}

func (e *LogExecutor) Scroll(ctx context.Context, direction string) error {
	e.logger.DebugContext(ctx, "scroll", "direction", direction)
	return nil
}

func (e *LogExecutor) TypeText(ctx context.Context, text string) error {
	// Text may be sensitive; only its length is logged.
	e.logger.InfoContext(ctx, "type text", "chars", len([]rune(text)))
	return nil
}

func (e *LogExecutor) KeyPress(ctx context.Context, key string) error {
	e.logger.InfoContext(ctx, "key press", "key", key)
	return nil
}

func (e *LogExecutor) Media(ctx context.Context, action string) error {
	e.logger.InfoContext(ctx, "media", "action", action)
	return nil
}

func (e *LogExecutor) Volume(ctx context.Context, action string) error {
	e.logger.InfoContext(ctx, "volume", "action", action)
	return nil
}

var _ Executor = (*LogExecutor)(nil)
