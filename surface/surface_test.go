package surface

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/solport/solport/wire"
)

type fakeSurface struct {
	mu     sync.Mutex
	frames []Frame
	closed int
}

func (f *fakeSurface) Send(context.Context, []byte) error { return nil }
func (f *fakeSurface) Inbound() <-chan []byte             { return nil }
func (f *fakeSurface) SetFrame(fr Frame) {
	f.mu.Lock()
	f.frames = append(f.frames, fr)
	f.mu.Unlock()
}
func (f *fakeSurface) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

type harness struct {
	ctrl *Controller
	urls []string
	surf *fakeSurface
}

func newHarness(origin string) *harness {
	h := &harness{}
	h.ctrl = NewController(Options{
		Factory: func(_ context.Context, url string) (Surface, error) {
			h.urls = append(h.urls, url)
			h.surf = &fakeSurface{}
			return h.surf, nil
		},
		BaseURL: "https://surface.example/embed",
		Cluster: "devnet",
		Origin:  origin,
	})
	return h
}

func TestURLEncodesClusterAndOrigin(t *testing.T) {
	h := newHarness("https://host.example/app?tab=1")
	got := h.ctrl.URL()
	want := "https://surface.example/embed?cluster=devnet&origin=https%3A%2F%2Fhost.example%2Fapp%3Ftab%3D1"
	if got != want {
		t.Fatalf("url mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestMaterializeClosesPrevious(t *testing.T) {
	h := newHarness("https://host.example")
	if _, err := h.ctrl.Materialize(context.Background()); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	first := h.surf
	if _, err := h.ctrl.Materialize(context.Background()); err != nil {
		t.Fatalf("materialize again: %v", err)
	}
	if first.closed != 1 {
		t.Fatalf("expected previous surface closed once, got %d", first.closed)
	}
	if len(h.urls) != 2 {
		t.Fatalf("expected two materializations, got %d", len(h.urls))
	}
}

func TestCollapseAndExpandGeometry(t *testing.T) {
	h := newHarness("https://host.example")
	if _, err := h.ctrl.Materialize(context.Background()); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	h.ctrl.Collapse()
	f := h.ctrl.Frame()
	if w, ok := f.Width.Pixels(); !ok || w != 2 {
		t.Fatalf("collapsed width should be 2px, got %+v", f.Width)
	}
	if hgt, ok := f.Height.Pixels(); !ok || hgt != 2 {
		t.Fatalf("collapsed height should be 2px, got %+v", f.Height)
	}
	if f.Top.IsSet() || f.Left.IsSet() {
		t.Fatalf("collapsed box pins to bottom-right only: %+v", f)
	}

	h.ctrl.Expand()
	f = h.ctrl.Frame()
	if f.Width.CSS() != "100%" || f.Height.CSS() != "100%" {
		t.Fatalf("expanded should fill viewport, got %+v", f)
	}
	if top, ok := f.Top.Pixels(); !ok || top != 0 {
		t.Fatalf("expanded top should be 0px, got %+v", f.Top)
	}

	if len(h.surf.frames) != 2 {
		t.Fatalf("expected two frame applications, got %d", len(h.surf.frames))
	}
}

func TestHandleResizeFullDirective(t *testing.T) {
	h := newHarness("https://host.example")
	if _, err := h.ctrl.Materialize(context.Background()); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	h.ctrl.HandleResize(wire.ResizeFull, json.RawMessage(`{"mode":"fullscreen"}`))
	if h.ctrl.Frame().Width.CSS() != "100%" {
		t.Fatalf("fullscreen should expand")
	}

	h.ctrl.HandleResize(wire.ResizeFull, json.RawMessage(`{"mode":"hide"}`))
	if w, ok := h.ctrl.Frame().Width.Pixels(); !ok || w != 2 {
		t.Fatalf("hide should collapse")
	}

	// Unknown mode keeps the current geometry.
	h.ctrl.HandleResize(wire.ResizeFull, json.RawMessage(`{"mode":"wiggle"}`))
	if w, _ := h.ctrl.Frame().Width.Pixels(); w != 2 {
		t.Fatalf("unknown mode should be ignored")
	}
}

func TestHandleResizeCoordinates(t *testing.T) {
	h := newHarness("https://host.example")
	if _, err := h.ctrl.Materialize(context.Background()); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	h.ctrl.Collapse()

	h.ctrl.HandleResize(wire.ResizeCoordinates, json.RawMessage(`{"top":10,"left":"auto"}`))
	f := h.ctrl.Frame()
	if top, ok := f.Top.Pixels(); !ok || top != 10 {
		t.Fatalf("top should be 10px, got %+v", f.Top)
	}
	if f.Left.CSS() != "auto" {
		t.Fatalf("left should be literal auto, got %+v", f.Left)
	}
	// Axes absent from the directive keep their value.
	if w, ok := f.Width.Pixels(); !ok || w != 2 {
		t.Fatalf("width should survive the directive, got %+v", f.Width)
	}
}

func TestHandleResizeUnknownDirective(t *testing.T) {
	h := newHarness("https://host.example")
	if _, err := h.ctrl.Materialize(context.Background()); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	h.ctrl.HandleResize("spin", json.RawMessage(`{}`))
	h.ctrl.HandleResize(wire.ResizeCoordinates, json.RawMessage(`garbled`))
	if len(h.surf.frames) != 0 {
		t.Fatalf("unknown directives must not touch geometry")
	}
}

func TestTeardownIdempotent(t *testing.T) {
	h := newHarness("https://host.example")
	if _, err := h.ctrl.Materialize(context.Background()); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	surf := h.surf
	h.ctrl.Teardown()
	h.ctrl.Teardown()
	if surf.closed != 1 {
		t.Fatalf("expected exactly one close, got %d", surf.closed)
	}
	if h.ctrl.Active() != nil {
		t.Fatalf("controller should own nothing after teardown")
	}
}

func TestOnFrameObserver(t *testing.T) {
	var seen []Frame
	ctrl := NewController(Options{
		Factory: func(context.Context, string) (Surface, error) { return &fakeSurface{}, nil },
		BaseURL: "https://surface.example/embed",
		OnFrame: func(f Frame) { seen = append(seen, f) },
	})
	if _, err := ctrl.Materialize(context.Background()); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	ctrl.Expand()
	ctrl.Collapse()
	if len(seen) != 2 {
		t.Fatalf("expected observer to see 2 frames, got %d", len(seen))
	}
}
