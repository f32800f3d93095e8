package sim

import (
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/mr-tron/base58"

	"github.com/solport/solport/adapter"
	"github.com/solport/solport/transport"
	"github.com/solport/solport/wire"
)

type memoTx struct {
	payload []byte
	sigKey  string
	sig     []byte
}

func (tx *memoTx) SerializeMessage() ([]byte, error) { return tx.payload, nil }
func (tx *memoTx) Serialize() ([]byte, error)        { return tx.payload, nil }
func (tx *memoTx) AddSignature(publicKey string, signature []byte) error {
	tx.sigKey = publicKey
	tx.sig = signature
	return nil
}

func startSim(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func newAdapter(ts *httptest.Server) *adapter.Adapter {
	return adapter.New(adapter.Config{
		SurfaceURL: ts.URL + "/surface",
		Cluster:    "devnet",
		Origin:     "https://host.example",
		Factory:    transport.Factory(transport.Options{}),
	})
}

func TestEndToEndSigningSession(t *testing.T) {
	srv, ts := startSim(t, Config{})
	a := newAdapter(ts)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if a.PublicKey() != srv.PublicKey() {
		t.Fatalf("identity mismatch: %q vs %q", a.PublicKey(), srv.PublicKey())
	}
	pub, err := base58.Decode(srv.PublicKey())
	if err != nil {
		t.Fatalf("decode identity: %v", err)
	}

	// signMessage: the returned signature must verify against the identity.
	data := []byte("hello surface")
	sig, err := a.SignMessage(ctx, data, "utf8")
	if err != nil {
		t.Fatalf("signMessage: %v", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), data, sig) {
		t.Fatalf("message signature does not verify")
	}

	// signTransaction: the attached signature verifies against the message.
	tx := &memoTx{payload: []byte("memo: e2e")}
	if err := a.SignTransaction(ctx, tx); err != nil {
		t.Fatalf("signTransaction: %v", err)
	}
	if tx.sigKey != srv.PublicKey() {
		t.Fatalf("signer key mismatch: %q", tx.sigKey)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), tx.payload, tx.sig) {
		t.Fatalf("transaction signature does not verify")
	}

	// signAllTransactions applies positionally.
	batch := []*memoTx{{payload: []byte("one")}, {payload: []byte("two")}}
	if err := a.SignAllTransactions(ctx, []adapter.Transaction{batch[0], batch[1]}); err != nil {
		t.Fatalf("signAllTransactions: %v", err)
	}
	for i, tx := range batch {
		if !ed25519.Verify(ed25519.PublicKey(pub), tx.payload, tx.sig) {
			t.Fatalf("batch signature %d does not verify", i)
		}
	}

	// signAndSendTransaction returns a submission id.
	id, err := a.SignAndSendTransaction(ctx, &memoTx{payload: []byte("send me")}, nil)
	if err != nil {
		t.Fatalf("signAndSendTransaction: %v", err)
	}
	if id == "" {
		t.Fatalf("empty submission id")
	}

	if err := a.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if a.Connected() {
		t.Fatalf("expected disconnected adapter")
	}
}

func TestUnsupportedMethodDeclined(t *testing.T) {
	_, ts := startSim(t, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, ts.URL+"/surface", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	raw, err := wire.WrapRequest(wire.Request{ID: "r1", Method: "mintUnicorns"})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Skip the connect event and resize directive, then expect the decline.
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		msg, ok := wire.DecodeInbound(data)
		if !ok || msg.Type != wire.TypeResponse {
			continue
		}
		if msg.ID != "r1" {
			t.Fatalf("unexpected response id %q", msg.ID)
		}
		if len(msg.Error) == 0 {
			t.Fatalf("expected an error response, got result %s", msg.Result)
		}
		return
	}
}

func TestEndToEndRejectedConnect(t *testing.T) {
	_, ts := startSim(t, Config{RejectConnect: true})
	a := newAdapter(ts)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.Connect(ctx)
	if !errors.Is(err, adapter.ErrConnectRejected) {
		t.Fatalf("expected ErrConnectRejected, got %v", err)
	}
	if a.Connected() {
		t.Fatalf("expected disconnected adapter")
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	_, ts := startSim(t, Config{})
	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz: %d %q", res.StatusCode, body)
	}

	res, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("metrics: %d", res.StatusCode)
	}
}
