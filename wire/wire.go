// Package wire defines the channel-tagged envelope protocol spoken between a
// host application and its embedded signing surface. Both directions share one
// message channel; the channel tag keeps unrelated bus traffic out.
package wire

import "encoding/json"

// Channel tags. Envelopes carrying any other tag are not part of this
// protocol and must be dropped without error.
const (
	// ChannelHost tags surface→host envelopes.
	ChannelHost = "solport_host"
	// ChannelSurface tags host→surface envelopes.
	ChannelSurface = "solport_surface"
)

// Inner message types carried by surface→host envelopes.
const (
	TypeResponse = "response"
	TypeEvent    = "event"
	TypeResize   = "resize"
)

// Lifecycle event names.
const (
	EventConnect        = "connect"
	EventDisconnect     = "disconnect"
	EventAccountChanged = "accountChanged"
)

// Resize directive modes.
const (
	ResizeFull        = "full"
	ResizeCoordinates = "coordinates"

	ModeFullscreen = "fullscreen"
	ModeHide       = "hide"
)

// Envelope is the outer frame on the shared channel.
type Envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// Request is a host→surface correlated request.
type Request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Message is the inner payload of a surface→host envelope. Exactly one of the
// field groups is populated depending on Type.
type Message struct {
	Type string `json:"type"`

	// Type == TypeResponse
	ID     string          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`

	// Type == TypeEvent
	Event *Event `json:"event,omitempty"`

	// Type == TypeResize
	ResizeMode string          `json:"resizeMode,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
}

// Event is a lifecycle notification pushed by the surface.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data,omitempty"`
}

// EventData carries the optional identity attached to a lifecycle event.
type EventData struct {
	PublicKey string `json:"publicKey,omitempty"`
}

// FullParams is the params shape of a ResizeFull directive.
type FullParams struct {
	Mode string `json:"mode"`
}

// Coordinates is the params shape of a ResizeCoordinates directive. Absent
// axes leave the current geometry untouched.
type Coordinates struct {
	Top    *Length `json:"top,omitempty"`
	Left   *Length `json:"left,omitempty"`
	Right  *Length `json:"right,omitempty"`
	Bottom *Length `json:"bottom,omitempty"`
	Width  *Length `json:"width,omitempty"`
	Height *Length `json:"height,omitempty"`
}

// WrapRequest frames a host→surface request.
func WrapRequest(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Channel: ChannelSurface, Data: data})
}

// WrapMessage frames a surface→host message. Used by surface implementations
// such as the simulator.
func WrapMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Channel: ChannelHost, Data: data})
}

// DecodeInbound unwraps a surface→host envelope. It reports ok=false for
// foreign channel tags, malformed JSON, and messages with no recognizable
// type; such frames are bus noise and carry no error.
func DecodeInbound(raw []byte) (Message, bool) {
	var env Envelope
	if json.Unmarshal(raw, &env) != nil || env.Channel != ChannelHost {
		return Message{}, false
	}
	var msg Message
	if json.Unmarshal(env.Data, &msg) != nil || msg.Type == "" {
		return Message{}, false
	}
	return msg, true
}

// DecodeRequest unwraps a host→surface envelope into a request. The surface
// side applies the same permissive dropping as the host side.
func DecodeRequest(raw []byte) (Request, bool) {
	var env Envelope
	if json.Unmarshal(raw, &env) != nil || env.Channel != ChannelSurface {
		return Request{}, false
	}
	var req Request
	if json.Unmarshal(env.Data, &req) != nil || req.ID == "" || req.Method == "" {
		return Request{}, false
	}
	return req, true
}
