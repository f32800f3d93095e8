// Package sim is a reference implementation of the signing-surface side of
// the protocol. It holds an in-memory ed25519 key and auto-approves every
// request, which makes it useful for local development and end-to-end tests
// and useless as an actual custody surface.
package sim

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solport/solport/core/logx"
	"github.com/solport/solport/wire"
)

// Server simulates one signing surface.
type Server struct {
	cfg Config
	key ed25519.PrivateKey
	pub string
}

// New generates a fresh keypair for the simulated wallet.
func New(cfg Config) (*Server, error) {
	pub, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, key: key, pub: base58.Encode(pub)}, nil
}

// PublicKey returns the simulated wallet identity, base-58 encoded.
func (s *Server) PublicKey() string { return s.pub }

// Router returns the HTTP handler: the websocket surface endpoint, a health
// probe, and prometheus metrics. CORS is wide open because the host page is
// cross-origin by construction.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))
	r.Get("/surface", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.cfg.MetricsAddr == "" {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	cluster := r.URL.Query().Get("cluster")
	origin := r.URL.Query().Get("origin")
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		logx.Log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("ws accept")
		return
	}
	defer func() { _ = c.Close(websocket.StatusInternalError, "server error") }()
	sessionTotal.Inc()
	logx.Log.Info().Str("cluster", cluster).Str("origin", origin).Str("remote", r.RemoteAddr).Msg("host attached")

	ctx := r.Context()
	sess := &session{srv: s, conn: c}
	if s.cfg.RejectConnect {
		// Connect event without an identity signals rejection.
		_ = sess.sendEvent(ctx, wire.Event{Type: wire.EventConnect})
		_ = c.Close(websocket.StatusNormalClosure, "rejected")
		return
	}
	if err := sess.sendEvent(ctx, wire.Event{Type: wire.EventConnect, Data: wire.EventData{PublicKey: s.pub}}); err != nil {
		return
	}
	// A real surface collapses itself once the approval prompt is done.
	_ = sess.sendResize(ctx, wire.ModeHide)

	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			logx.Log.Debug().Err(err).Msg("host detached")
			return
		}
		req, ok := wire.DecodeRequest(data)
		if !ok {
			continue
		}
		requestTotal.WithLabelValues(req.Method).Inc()
		if done := sess.handle(ctx, req); done {
			_ = c.Close(websocket.StatusNormalClosure, "disconnected")
			return
		}
	}
}

type session struct {
	srv  *Server
	conn *websocket.Conn
}

// handle processes one request and reports whether the session should end.
func (s *session) handle(ctx context.Context, req wire.Request) bool {
	switch req.Method {
	case "disconnect":
		_ = s.respond(ctx, req.ID, map[string]any{}, nil)
		_ = s.sendEvent(ctx, wire.Event{Type: wire.EventDisconnect})
		return true
	case "signTransaction":
		var p struct {
			Message string `json:"message"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			_ = s.respond(ctx, req.ID, nil, err)
			return false
		}
		sig, err := s.signBase58(p.Message)
		if err != nil {
			_ = s.respond(ctx, req.ID, nil, err)
			return false
		}
		_ = s.respond(ctx, req.ID, map[string]any{"signature": sig, "publicKey": s.srv.pub}, nil)
	case "signAllTransactions":
		var p struct {
			Messages []string `json:"messages"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			_ = s.respond(ctx, req.ID, nil, err)
			return false
		}
		sigs := make([]string, len(p.Messages))
		for i, m := range p.Messages {
			sig, err := s.signBase58(m)
			if err != nil {
				_ = s.respond(ctx, req.ID, nil, err)
				return false
			}
			sigs[i] = sig
		}
		_ = s.respond(ctx, req.ID, map[string]any{"signatures": sigs, "publicKey": s.srv.pub}, nil)
	case "signAndSendTransaction":
		var p struct {
			Transaction string         `json:"transaction"`
			Options     map[string]any `json:"options"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			_ = s.respond(ctx, req.ID, nil, err)
			return false
		}
		// The signature doubles as the submission id; nothing is actually
		// submitted anywhere.
		sig, err := s.signBase58(p.Transaction)
		if err != nil {
			_ = s.respond(ctx, req.ID, nil, err)
			return false
		}
		_ = s.respond(ctx, req.ID, map[string]any{"signature": sig}, nil)
	case "signMessage":
		var p struct {
			Data    []byte `json:"data"`
			Display string `json:"display"`
		}
		if err := decodeParams(req.Params, &p); err != nil {
			_ = s.respond(ctx, req.ID, nil, err)
			return false
		}
		sig := ed25519.Sign(s.srv.key, p.Data)
		_ = s.respond(ctx, req.ID, base58.Encode(sig), nil)
	default:
		_ = s.respond(ctx, req.ID, nil, fmt.Errorf("unsupported method %q", req.Method))
	}
	return false
}

func (s *session) signBase58(encoded string) (string, error) {
	payload, err := base58.Decode(encoded)
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	return base58.Encode(ed25519.Sign(s.srv.key, payload)), nil
}

func (s *session) respond(ctx context.Context, id string, result any, err error) error {
	msg := wire.Message{Type: wire.TypeResponse, ID: id}
	if err != nil {
		msg.Error, _ = json.Marshal(map[string]string{"message": err.Error()})
	} else {
		msg.Result, _ = json.Marshal(result)
	}
	return s.write(ctx, msg)
}

func (s *session) sendEvent(ctx context.Context, ev wire.Event) error {
	return s.write(ctx, wire.Message{Type: wire.TypeEvent, Event: &ev})
}

func (s *session) sendResize(ctx context.Context, mode string) error {
	params, _ := json.Marshal(wire.FullParams{Mode: mode})
	return s.write(ctx, wire.Message{Type: wire.TypeResize, ResizeMode: wire.ResizeFull, Params: params})
}

func (s *session) write(ctx context.Context, msg wire.Message) error {
	raw, err := wire.WrapMessage(msg)
	if err != nil {
		return err
	}
	return s.conn.Write(ctx, websocket.MessageText, raw)
}

// decodeParams re-marshals the loosely decoded params into a typed shape.
func decodeParams(params any, dst any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
