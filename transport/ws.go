// Package transport provides the websocket-backed implementation of
// surface.Surface: one connection to the remote signing surface, a single
// reader goroutine feeding the inbound channel, and serialized writes.
package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/solport/solport/core/logx"
	"github.com/solport/solport/surface"
)

// Options configures the websocket surface.
type Options struct {
	// HTTPClient is used for the websocket handshake. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
	// OnFrame receives geometry changes. Headless hosts can leave it nil;
	// embedders that render the surface forward it to their view layer.
	OnFrame func(surface.Frame)
	// ReadLimit caps inbound frame sizes in bytes. Zero keeps the websocket
	// library default.
	ReadLimit int64
}

// Factory returns a surface.Factory that dials the materialization URL.
func Factory(opts Options) surface.Factory {
	return func(ctx context.Context, url string) (surface.Surface, error) {
		return Dial(ctx, url, opts)
	}
}

// Dial opens a websocket to the surface endpoint and starts the read pump.
func Dial(ctx context.Context, url string, opts Options) (surface.Surface, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: opts.HTTPClient})
	if err != nil {
		return nil, err
	}
	if opts.ReadLimit > 0 {
		conn.SetReadLimit(opts.ReadLimit)
	}
	ws := &wsSurface{
		conn:    conn,
		onFrame: opts.OnFrame,
		inbound: make(chan []byte, 16),
	}
	go ws.readLoop()
	return ws, nil
}

type wsSurface struct {
	conn    *websocket.Conn
	onFrame func(surface.Frame)
	inbound chan []byte

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (ws *wsSurface) readLoop() {
	defer close(ws.inbound)
	ctx := context.Background()
	for {
		_, data, err := ws.conn.Read(ctx)
		if err != nil {
			logx.Log.Debug().Err(err).Msg("surface read ended")
			return
		}
		ws.inbound <- data
	}
}

func (ws *wsSurface) Send(ctx context.Context, payload []byte) error {
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return ws.conn.Write(ctx, websocket.MessageText, payload)
}

func (ws *wsSurface) Inbound() <-chan []byte { return ws.inbound }

func (ws *wsSurface) SetFrame(f surface.Frame) {
	if ws.onFrame != nil {
		ws.onFrame(f)
	}
}

func (ws *wsSurface) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		err = ws.conn.Close(websocket.StatusNormalClosure, "teardown")
	})
	return err
}
