// Package capture grabs still images of the screen and encodes them for
// transport to multimodal models.
//
// Screen capture uses github.com/kbinani/screenshot, which talks to the
// platform's display server directly (X11 on Linux, GDI on Windows,
// CoreGraphics on macOS).
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

var (
	// ErrNoDisplay is returned when no active display can be found.
	ErrNoDisplay = errors.New("no active display available")

	// ErrDisplayOutOfRange is returned when the configured display does not exist.
	ErrDisplayOutOfRange = errors.New("display index out of range")
)

// AllDisplays selects the bounding box of every active display.
const AllDisplays = -1

// Capturer produces a single still image of the display.
type Capturer interface {
	Capture(ctx context.Context) (image.Image, error)
}

// CapturerFunc adapts a function to the Capturer interface.
type CapturerFunc func(ctx context.Context) (image.Image, error)

func (f CapturerFunc) Capture(ctx context.Context) (image.Image, error) {
	return f(ctx)
}

// Screen captures a physical display. The zero value captures the primary
// display.
type Screen struct {
	// Display is the display index, or AllDisplays for the union of all of them.
	Display int
}

// Ensure Screen implements Capturer.
var _ Capturer = Screen{}

// Capture grabs the configured display at the time of the call.
func (s Screen) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplay
	}

	bounds, err := s.bounds(n)
	if err != nil {
		return nil, err
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", s.Display, err)
	}
	return img, nil
}

func (s Screen) bounds(n int) (image.Rectangle, error) {
	if s.Display == AllDisplays {
		var union image.Rectangle
		for i := 0; i < n; i++ {
			union = union.Union(screenshot.GetDisplayBounds(i))
		}
		return union, nil
	}

	if s.Display < 0 || s.Display >= n {
		return image.Rectangle{}, fmt.Errorf("%w: %d (active displays: %d)", ErrDisplayOutOfRange, s.Display, n)
	}
	return screenshot.GetDisplayBounds(s.Display), nil
}
