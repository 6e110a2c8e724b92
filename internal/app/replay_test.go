package app

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"onchainlottery/internal/codec"
)

func TestReplayProtection_RejectsReusedNonce(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	mintTestTokens(t, a, height, "alice", 100)
	registerTestAccount(t, a, height, "alice")

	tx := txBytesSigned(t, "bank/send", map[string]any{"from": "alice", "to": "bob", "amount": 1}, "alice")
	mustOk(t, a.deliverTx(tx, height, 0))

	res := a.deliverTx(tx, height, 0)
	if res.Code == 0 {
		t.Fatalf("expected replay to be rejected")
	}
	if !strings.Contains(res.Log, "replayed tx.nonce") {
		t.Fatalf("expected replay log to mention nonce, got %q", res.Log)
	}
	if a.st.Balance("bob") != 1 {
		t.Fatalf("replay moved funds: bob=%d", a.st.Balance("bob"))
	}
}

func TestReplayProtection_RejectsNonNumericNonce(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	pub, priv := testEd25519Key("alice")
	value := map[string]any{"account": "alice", "pubKey": []byte(pub)}
	valueBytes := mustMarshal(t, value)

	nonce := "not-a-number"
	msg := txAuthSignBytesV0("auth/register_account", valueBytes, nonce, "alice")
	sig := ed25519.Sign(priv, msg)
	env := codec.TxEnvelope{
		Type:   "auth/register_account",
		Value:  valueBytes,
		Nonce:  nonce,
		Signer: "alice",
		Sig:    sig,
	}

	res := a.deliverTx(mustMarshal(t, env), height, 0)
	if res.Code == 0 {
		t.Fatalf("expected non-numeric nonce to be rejected")
	}
	if !strings.Contains(res.Log, "invalid tx.nonce") {
		t.Fatalf("expected log to mention invalid tx.nonce, got %q", res.Log)
	}
}

func TestReplayProtection_RejectsStaleLowerNonce(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	mintTestTokens(t, a, height, "alice", 100)
	registerTestAccount(t, a, height, "alice")
	mustOk(t, a.deliverTx(txBytesSigned(t, "bank/send", map[string]any{
		"from": "alice", "to": "bob", "amount": 1,
	}, "alice"), height, 0))

	// Hand-build a tx with nonce 1, far below the signer's high-water mark.
	_, priv := testEd25519Key("alice")
	value := map[string]any{"from": "alice", "to": "bob", "amount": 1}
	valueBytes := mustMarshal(t, value)
	msg := txAuthSignBytesV0("bank/send", valueBytes, "1", "alice")
	sig := ed25519.Sign(priv, msg)
	env := codec.TxEnvelope{
		Type: "bank/send", Value: valueBytes,
		Nonce: "1", Signer: "alice", Sig: sig,
	}

	res := a.deliverTx(mustMarshal(t, env), height, 0)
	if res.Code == 0 {
		t.Fatalf("expected stale nonce to be rejected")
	}
	if !strings.Contains(res.Log, "replayed tx.nonce") {
		t.Fatalf("unexpected log: %q", res.Log)
	}
}

func TestAuth_RejectsTamperedValue(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	mintTestTokens(t, a, height, "alice", 100)
	registerTestAccount(t, a, height, "alice")

	// Sign a 1-token send, then swap the value for a 99-token send.
	_, priv := testEd25519Key("alice")
	signedValue := mustMarshal(t, map[string]any{"from": "alice", "to": "bob", "amount": 1})
	nonce := nextTestNonce()
	msg := txAuthSignBytesV0("bank/send", signedValue, nonce, "alice")
	sig := ed25519.Sign(priv, msg)
	env := codec.TxEnvelope{
		Type:   "bank/send",
		Value:  mustMarshal(t, map[string]any{"from": "alice", "to": "bob", "amount": 99}),
		Nonce:  nonce,
		Signer: "alice",
		Sig:    sig,
	}

	res := a.deliverTx(mustMarshal(t, env), height, 0)
	if res.Code == 0 {
		t.Fatalf("expected tampered value to be rejected")
	}
	if !strings.Contains(res.Log, "invalid signature") {
		t.Fatalf("unexpected log: %q", res.Log)
	}
	if a.st.Balance("alice") != 100 {
		t.Fatalf("tampered tx moved funds")
	}
}

func TestAuth_RejectsUnregisteredSigner(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)
	setupConfiguredLottery(t, a, height)

	// "ghost" never registered a key.
	res := a.deliverTx(txBytesSigned(t, "lottery/start", map[string]any{
		"starter": "ghost",
	}, "ghost"), height, 1000)
	if res.Code == 0 {
		t.Fatalf("expected unregistered signer to be rejected")
	}
	if !strings.Contains(res.Log, "missing pubKey") {
		t.Fatalf("unexpected log: %q", res.Log)
	}
}
