// Package surface owns the lifecycle and on-screen geometry of the embedded
// signing surface: materialization at a parameterized URL, collapse/expand,
// remote resize directives, and idempotent teardown.
package surface

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/solport/solport/core/logx"
	"github.com/solport/solport/wire"
)

// Surface is one materialized embedded surface: a send/receive endpoint on
// the shared message channel plus a geometry sink. Implementations decide
// what SetFrame means for their rendering; headless transports may ignore it
// or forward it to an embedder callback.
type Surface interface {
	// Send transmits one raw envelope to the surface.
	Send(ctx context.Context, payload []byte) error
	// Inbound yields raw envelopes from the surface. The channel closes when
	// the surface dies or is closed.
	Inbound() <-chan []byte
	// SetFrame applies the current geometry.
	SetFrame(Frame)
	// Close releases the surface. Safe to call more than once.
	Close() error
}

// Factory materializes a surface at the given URL.
type Factory func(ctx context.Context, url string) (Surface, error)

// Options configures a Controller.
type Options struct {
	// Factory materializes surfaces. Required.
	Factory Factory
	// BaseURL is the surface endpoint without query parameters. Required.
	BaseURL string
	// Cluster is the target network identifier passed to the surface.
	Cluster string
	// Origin is the host's own origin, reported to the surface.
	Origin string
	// OnFrame, when set, observes every geometry change.
	OnFrame func(Frame)
}

// Controller owns at most one surface at a time along with its geometry.
// All methods are safe for concurrent use.
type Controller struct {
	opts Options

	mu    sync.Mutex
	surf  Surface
	frame Frame
}

// NewController returns a controller with no materialized surface.
func NewController(opts Options) *Controller {
	return &Controller{opts: opts}
}

// URL returns the materialization URL with percent-encoded cluster and
// origin query parameters.
func (c *Controller) URL() string {
	q := url.Values{}
	q.Set("cluster", c.opts.Cluster)
	q.Set("origin", c.opts.Origin)
	return c.opts.BaseURL + "?" + q.Encode()
}

// Materialize closes any previously owned surface and opens a fresh one at
// the parameterized URL. The returned surface is also retained by the
// controller for geometry and teardown.
func (c *Controller) Materialize(ctx context.Context) (Surface, error) {
	c.mu.Lock()
	prev := c.surf
	c.surf = nil
	c.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	surf, err := c.opts.Factory(ctx, c.URL())
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.surf = surf
	c.frame = Frame{}
	c.mu.Unlock()
	logx.Log.Debug().Str("url", c.URL()).Msg("surface materialized")
	return surf, nil
}

// Active returns the currently owned surface, or nil.
func (c *Controller) Active() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surf
}

// Frame returns the current geometry.
func (c *Controller) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Collapse shrinks the surface to the near-invisible box.
func (c *Controller) Collapse() { c.setFrame(Collapsed()) }

// Expand grows the surface to the full-viewport overlay.
func (c *Controller) Expand() { c.setFrame(Expanded()) }

// HandleResize applies a remote resize directive. Unknown directive and mode
// values are ignored.
func (c *Controller) HandleResize(mode string, params json.RawMessage) {
	switch mode {
	case wire.ResizeFull:
		var p wire.FullParams
		if json.Unmarshal(params, &p) != nil {
			return
		}
		switch p.Mode {
		case wire.ModeFullscreen:
			c.Expand()
		case wire.ModeHide:
			c.Collapse()
		}
	case wire.ResizeCoordinates:
		var coords wire.Coordinates
		if json.Unmarshal(params, &coords) != nil {
			return
		}
		c.mu.Lock()
		frame := c.frame.Apply(coords)
		c.mu.Unlock()
		c.setFrame(frame)
	}
}

func (c *Controller) setFrame(f Frame) {
	c.mu.Lock()
	c.frame = f
	surf := c.surf
	c.mu.Unlock()
	if surf != nil {
		surf.SetFrame(f)
	}
	if c.opts.OnFrame != nil {
		c.opts.OnFrame(f)
	}
}

// Teardown closes and releases the owned surface. Idempotent: calling it with
// no surface is a no-op.
func (c *Controller) Teardown() {
	c.mu.Lock()
	surf := c.surf
	c.surf = nil
	c.frame = Frame{}
	c.mu.Unlock()
	if surf != nil {
		_ = surf.Close()
		logx.Log.Debug().Msg("surface torn down")
	}
}
