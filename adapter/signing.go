package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// Transaction is the external collaborator that encodes domain payloads and
// absorbs signatures. The adapter never inspects transaction contents.
type Transaction interface {
	// SerializeMessage encodes the signable message of the transaction.
	SerializeMessage() ([]byte, error)
	// Serialize encodes the whole transaction, signed or not, for
	// submission by the surface.
	Serialize() ([]byte, error)
	// AddSignature attaches a signature produced by publicKey.
	AddSignature(publicKey string, signature []byte) error
}

// call issues one correlated request and decodes the response payload into T.
func call[T any](ctx context.Context, a *Adapter, method string, params any) (T, error) {
	var out T
	payload, err := a.sendRequest(ctx, method, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("decode %s result: %w", method, err)
	}
	return out, nil
}

type signatureResult struct {
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey,omitempty"`
}

type signaturesResult struct {
	Signatures []string `json:"signatures"`
	PublicKey  string   `json:"publicKey,omitempty"`
}

// SignTransaction asks the surface to sign tx and attaches the returned
// signature to it.
func (a *Adapter) SignTransaction(ctx context.Context, tx Transaction) error {
	msg, err := tx.SerializeMessage()
	if err != nil {
		return signingError(err)
	}
	res, err := call[signatureResult](ctx, a, "signTransaction", map[string]any{
		"message": base58.Encode(msg),
	})
	if err != nil {
		return signingError(err)
	}
	if err := a.attachSignature(tx, res.PublicKey, res.Signature); err != nil {
		return signingError(err)
	}
	return nil
}

// SignAllTransactions signs a batch in one request and applies the returned
// signature list positionally. A missing or empty entry fails the whole
// batch; transactions before it may already carry their signature.
func (a *Adapter) SignAllTransactions(ctx context.Context, txs []Transaction) error {
	messages := make([]string, len(txs))
	for i, tx := range txs {
		msg, err := tx.SerializeMessage()
		if err != nil {
			return signingError(err)
		}
		messages[i] = base58.Encode(msg)
	}
	res, err := call[signaturesResult](ctx, a, "signAllTransactions", map[string]any{
		"messages": messages,
	})
	if err != nil {
		return signingError(err)
	}
	if len(res.Signatures) < len(txs) {
		return signingError(fmt.Errorf("expected %d signatures, got %d", len(txs), len(res.Signatures)))
	}
	for i, tx := range txs {
		if res.Signatures[i] == "" {
			return signingError(fmt.Errorf("missing signature for transaction %d", i))
		}
		if err := a.attachSignature(tx, res.PublicKey, res.Signatures[i]); err != nil {
			return signingError(err)
		}
	}
	return nil
}

// SignAndSendTransaction hands the fully serialized transaction to the
// surface for signing and submission and returns the submission identifier.
func (a *Adapter) SignAndSendTransaction(ctx context.Context, tx Transaction, options map[string]any) (string, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return "", signingError(err)
	}
	params := map[string]any{"transaction": base58.Encode(raw)}
	if options != nil {
		params["options"] = options
	}
	res, err := call[signatureResult](ctx, a, "signAndSendTransaction", params)
	if err != nil {
		return "", signingError(err)
	}
	if res.Signature == "" {
		return "", signingError(fmt.Errorf("surface returned no submission id"))
	}
	return res.Signature, nil
}

// SignMessage asks the surface to sign an arbitrary byte payload, displayed
// to the user as indicated ("utf8" or "hex"), and returns the raw signature.
func (a *Adapter) SignMessage(ctx context.Context, data []byte, display string) ([]byte, error) {
	encoded, err := call[string](ctx, a, "signMessage", map[string]any{
		"data":    data,
		"display": display,
	})
	if err != nil {
		return nil, signingError(err)
	}
	sig, err := base58.Decode(encoded)
	if err != nil {
		return nil, signingError(fmt.Errorf("decode signature: %w", err))
	}
	return sig, nil
}

// Sign is an alias for SignMessage kept for API compatibility with other
// wallet adapters.
func (a *Adapter) Sign(ctx context.Context, data []byte, display string) ([]byte, error) {
	return a.SignMessage(ctx, data, display)
}

func (a *Adapter) attachSignature(tx Transaction, publicKey, encoded string) error {
	sig, err := base58.Decode(encoded)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	if publicKey == "" {
		publicKey = a.PublicKey()
	}
	return tx.AddSignature(publicKey, sig)
}
