// Package adapter implements the host side of the embedded signing-surface
// protocol: the connection state machine, the request/response correlator
// multiplexed over the surface's single message channel, inbound event
// dispatch, and the signing façade. Key material never crosses the channel;
// the adapter only exchanges envelopes and receives lifecycle events.
package adapter

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/solport/solport/core/logx"
	"github.com/solport/solport/surface"
	"github.com/solport/solport/wire"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}

// DefaultCluster is the network used when Config.Cluster is empty.
const DefaultCluster = "mainnet-beta"

// DefaultRequestTimeout bounds the wait for a response envelope when
// Config.RequestTimeout is zero.
const DefaultRequestTimeout = 2 * time.Minute

// Config configures an Adapter.
type Config struct {
	// SurfaceURL is the base endpoint of the signing surface. Required.
	SurfaceURL string
	// Cluster is the target network identifier. Defaults to DefaultCluster.
	Cluster string
	// Origin is the host's own origin, reported to the surface.
	Origin string
	// Factory materializes the surface, typically transport.Factory.
	// Required.
	Factory surface.Factory
	// OnFrame observes surface geometry changes.
	OnFrame func(surface.Frame)
	// RequestTimeout bounds each correlated request. Zero means
	// DefaultRequestTimeout; a negative value disables the timeout.
	RequestTimeout time.Duration
}

// Adapter is the host-side wallet adapter. One adapter owns at most one
// surface, one session, and one set of pending requests; instances share
// nothing. All methods are safe for concurrent use.
type Adapter struct {
	ctrl    *surface.Controller
	pending *correlator
	timeout time.Duration

	mu       sync.Mutex
	state    State
	identity string
	surf     surface.Surface
	attempt  *connectAttempt
	subs     map[int]chan Notification
	nextSub  int
}

// connectAttempt is the single pending connect handle. err is written before
// done is closed and read only after.
type connectAttempt struct {
	done chan struct{}
	err  error
}

// New returns a disconnected adapter.
func New(cfg Config) *Adapter {
	if cfg.Cluster == "" {
		cfg.Cluster = DefaultCluster
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}
	a := &Adapter{
		pending: newCorrelator(),
		timeout: timeout,
		subs:    map[int]chan Notification{},
	}
	a.ctrl = surface.NewController(surface.Options{
		Factory: cfg.Factory,
		BaseURL: cfg.SurfaceURL,
		Cluster: cfg.Cluster,
		Origin:  cfg.Origin,
		OnFrame: cfg.OnFrame,
	})
	return a
}

// PublicKey returns the active identity, or "" when disconnected.
func (a *Adapter) PublicKey() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity
}

// Connected reports whether a session with an identity is established.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == StateConnected && a.identity != ""
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// AutoApprove reports whether the surface signs without prompting. The
// embedded surface always prompts, so this is constant false.
func (a *Adapter) AutoApprove() bool { return false }

// Surface exposes the surface controller, mainly so embedders can read the
// current geometry.
func (a *Adapter) Surface() *surface.Controller { return a.ctrl }

// Connect materializes the surface and blocks until the surface reports a
// connect outcome. Connecting while connected is a no-op; connecting while an
// attempt is pending joins that attempt instead of replacing it. Cancelling
// the initiating call's context abandons the session.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	switch a.state {
	case StateConnected:
		a.mu.Unlock()
		return nil
	case StateConnecting:
		att := a.attempt
		a.mu.Unlock()
		select {
		case <-att.done:
			return att.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	att := &connectAttempt{done: make(chan struct{})}
	a.attempt = att
	a.state = StateConnecting
	a.mu.Unlock()

	surf, err := a.ctrl.Materialize(ctx)
	if err != nil {
		a.mu.Lock()
		a.state = StateDisconnected
		a.attempt = nil
		a.mu.Unlock()
		att.err = err
		close(att.done)
		recordConnect("error")
		return err
	}
	a.mu.Lock()
	a.surf = surf
	a.mu.Unlock()
	go a.readLoop(surf)

	select {
	case <-att.done:
		return att.err
	case <-ctx.Done():
		a.teardown(ctx.Err())
		return ctx.Err()
	}
}

// Disconnect sends the disconnect request and ends the session. Teardown is
// best-effort-always: it runs even when the request cannot be delivered.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	if a.state != StateConnected || a.identity == "" {
		a.mu.Unlock()
		return ErrNotConnected
	}
	surf := a.surf
	a.mu.Unlock()

	id, _ := a.pending.add()
	raw, err := wire.WrapRequest(wire.Request{ID: id, Method: "disconnect", Params: map[string]any{}})
	if err == nil {
		err = surf.Send(ctx, raw)
	}
	if err != nil {
		a.pending.drop(id)
		logx.Log.Warn().Err(err).Msg("disconnect request not delivered")
	}
	a.teardown(nil)
	a.notify(Notification{Kind: NotifyDisconnect})
	return nil
}

// readLoop is the single inbound listener for one materialized surface.
// Envelopes are processed in arrival order; anything foreign or malformed is
// dropped silently.
func (a *Adapter) readLoop(surf surface.Surface) {
	for raw := range surf.Inbound() {
		msg, ok := wire.DecodeInbound(raw)
		if !ok {
			logx.Log.Debug().Msg("dropping foreign or malformed envelope")
			continue
		}
		switch msg.Type {
		case wire.TypeResponse:
			a.handleResponse(msg)
		case wire.TypeEvent:
			if msg.Event != nil {
				a.handleEvent(*msg.Event)
			}
		case wire.TypeResize:
			a.ctrl.HandleResize(msg.ResizeMode, msg.Params)
		}
	}
	// Inbound closed: the surface died underneath us. Ignore if the adapter
	// already moved on to teardown or a newer surface.
	a.mu.Lock()
	active := a.surf == surf
	a.mu.Unlock()
	if active {
		logx.Log.Info().Msg("surface connection lost")
		a.teardown(ErrConnectRejected)
		a.notify(Notification{Kind: NotifyDisconnect})
	}
}

func (a *Adapter) handleResponse(msg wire.Message) {
	res := result{payload: msg.Result}
	if len(msg.Error) > 0 && string(msg.Error) != "null" {
		res = result{err: &RemoteError{Raw: msg.Error}}
	}
	if !a.pending.settle(msg.ID, res) {
		logx.Log.Debug().Str("id", msg.ID).Msg("response without pending request")
	}
}

func (a *Adapter) handleEvent(ev wire.Event) {
	switch ev.Type {
	case wire.EventConnect:
		if ev.Data.PublicKey == "" {
			recordConnect("rejected")
			a.teardown(ErrConnectRejected)
			a.notify(Notification{Kind: NotifyDisconnect})
			return
		}
		a.completeConnect(ev.Data.PublicKey)
	case wire.EventDisconnect:
		a.teardown(ErrConnectRejected)
		a.notify(Notification{Kind: NotifyDisconnect})
	case wire.EventAccountChanged:
		a.handleAccountChanged(ev.Data.PublicKey)
	default:
		logx.Log.Debug().Str("event", ev.Type).Msg("ignoring unknown event")
	}
}

func (a *Adapter) completeConnect(publicKey string) {
	a.mu.Lock()
	a.identity = publicKey
	a.state = StateConnected
	att := a.attempt
	a.attempt = nil
	a.mu.Unlock()
	if att != nil {
		close(att.done)
	}
	a.ctrl.Collapse()
	recordConnect("connected")
	logx.Log.Info().Str("public_key", publicKey).Msg("wallet connected")
	a.notify(Notification{Kind: NotifyConnect, PublicKey: publicKey})
}

func (a *Adapter) handleAccountChanged(publicKey string) {
	a.mu.Lock()
	if publicKey != "" {
		a.identity = publicKey
	}
	a.mu.Unlock()
	a.notify(Notification{Kind: NotifyAccountChanged, PublicKey: publicKey})
}

// teardown resets the session, releases the surface, and fails the pending
// connect attempt (with attemptErr) and every outstanding request. Safe to
// call from any state.
func (a *Adapter) teardown(attemptErr error) {
	a.mu.Lock()
	att := a.attempt
	a.attempt = nil
	a.surf = nil
	a.state = StateDisconnected
	a.identity = ""
	a.mu.Unlock()
	if att != nil {
		att.err = attemptErr
		close(att.done)
	}
	a.ctrl.Teardown()
	a.pending.failAll(ErrDisconnected)
}

// sendRequest issues one correlated request and blocks for its response, the
// configured timeout, or ctx. Responses are matched by identifier only; any
// number of requests may be outstanding and may settle in any order.
func (a *Adapter) sendRequest(ctx context.Context, method string, params any) (json.RawMessage, error) {
	a.mu.Lock()
	if a.state != StateConnected || a.identity == "" {
		a.mu.Unlock()
		return nil, ErrNotConnected
	}
	surf := a.surf
	a.mu.Unlock()

	id, ch := a.pending.add()
	raw, err := wire.WrapRequest(wire.Request{ID: id, Method: method, Params: params})
	if err != nil {
		a.pending.drop(id)
		return nil, err
	}
	recordRequest(method)
	if err := surf.Send(ctx, raw); err != nil {
		a.pending.drop(id)
		recordSettled(method, "send_error")
		return nil, err
	}

	var timeoutCh <-chan time.Time
	if a.timeout > 0 {
		t := time.NewTimer(a.timeout)
		defer t.Stop()
		timeoutCh = t.C
	}
	select {
	case res := <-ch:
		if res.err != nil {
			recordSettled(method, "error")
			return nil, res.err
		}
		recordSettled(method, "ok")
		return res.payload, nil
	case <-timeoutCh:
		a.pending.drop(id)
		recordSettled(method, "timeout")
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		a.pending.drop(id)
		recordSettled(method, "canceled")
		return nil, ctx.Err()
	}
}
