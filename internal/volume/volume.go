// Package volume reads and writes sink volume through wpctl.
package volume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/jmylchreest/sinkrec/internal/command"
	"github.com/jmylchreest/sinkrec/internal/pipewire"
)

// Volume bounds in percent.
const (
	Min = 0
	Max = 100
)

// ErrUnparseable is returned when wpctl output has no volume value.
var ErrUnparseable = errors.New("unable to parse volume output")

// Clamp limits pct to [Min, Max].
func Clamp(pct int) int {
	return max(Min, min(Max, pct))
}

// ParseOutput parses `wpctl get-volume` output such as "Volume: 0.40 [MUTED]"
// into a clamped percentage.
func ParseOutput(output string) (int, error) {
	line := strings.TrimSpace(output)
	rest, ok := strings.CutPrefix(line, "Volume:")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, line)
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, line)
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, line)
	}
	v = math.Max(0, math.Min(1, v))
	return Clamp(int(math.Round(100 * v))), nil
}

// Controller gets and sets the volume of a sink.
type Controller struct {
	runner command.Runner
	logger *slog.Logger
}

// NewController creates a new Controller.
func NewController(runner command.Runner, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{runner: runner, logger: logger}
}

// Get returns the current sink volume in percent.
func (c *Controller) Get(ctx context.Context, sink pipewire.Sink) (int, error) {
	out, err := c.runner.Output(ctx, "wpctl", "get-volume", strconv.Itoa(sink.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to read volume: %w", err)
	}
	pct, err := ParseOutput(string(out))
	if err != nil {
		return 0, err
	}
	c.logger.Debug("read volume", "sink", sink.ID, "percent", pct)
	return pct, nil
}

// Set changes the sink volume. pct is clamped to [Min, Max].
func (c *Controller) Set(ctx context.Context, sink pipewire.Sink, pct int) error {
	pct = Clamp(pct)
	if err := c.runner.Run(ctx, "wpctl", "set-volume", strconv.Itoa(sink.ID), fmt.Sprintf("%d%%", pct)); err != nil {
		return fmt.Errorf("failed to set volume to %d%%: %w", pct, err)
	}
	c.logger.Debug("set volume", "sink", sink.ID, "percent", pct)
	return nil
}
