package grafx

import (
	"time"

	"github.com/gogpu/gpucontext"
)

// Window is the native window an App runs in. The windowing layer creates
// it, pumps OS events and decodes input; the App only registers callbacks.
//
// Callbacks are invoked from inside WaitUntil on the calling goroutine.
type Window interface {
	Target
	gpucontext.WindowProvider
	gpucontext.EventSource

	// OnCloseRequest registers the handler for the user closing the window.
	OnCloseRequest(fn func())

	// OnRedraw registers the handler for a redraw the window delivers
	// after RequestRedraw. Pending requests are coalesced.
	OnRedraw(fn func())

	// WaitUntil dispatches window events until deadline has passed or at
	// least one batch of events has been handled, whichever comes first.
	WaitUntil(deadline time.Time) error
}

// Input is the pointer state known to the App. Only pointer-move events
// write it.
type Input struct {
	x, y float64
}

// Cursor returns the last known pointer position in logical points.
func (in *Input) Cursor() (x, y float64) { return in.x, in.y }

func (in *Input) move(x, y float64) {
	in.x, in.y = x, y
}

// buttonName names the buttons the App reacts to.
func buttonName(b gpucontext.MouseButton) (string, bool) {
	switch b {
	case gpucontext.MouseButtonLeft:
		return "left", true
	case gpucontext.MouseButtonRight:
		return "right", true
	}
	return "", false
}
