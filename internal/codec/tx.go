package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the v0 transaction container.
//
// CometBFT transactions are opaque bytes. For v0 localnet we use JSON-encoded
// txs to move fast; this is NOT the final protocol encoding.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// v0 tx auth:
	// - Nonce: included in the signed message for replay protection (must increase per signer).
	// - Signer: logical signer account.
	// - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Bank ----

type BankMintTx struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type BankSendTx struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// ---- Auth (v0) ----

// v0: account pubkey registration for tx authentication.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Lottery ----

// LotterySetAdminTx changes the configured admin. Only the chain owner may
// send it.
type LotterySetAdminTx struct {
	Admin string `json:"admin"`
}

// LotterySetStateTx updates one configuration parameter. Numeric keys carry
// the new value in `value`; the account-valued key `platform_fee_account`
// carries it in `account`.
type LotterySetStateTx struct {
	Key     string `json:"key"`
	Value   uint64 `json:"value,omitempty"`
	Account string `json:"account,omitempty"`
}

type LotteryStartTx struct {
	Starter string `json:"starter"`
}

// LotteryBuyTx is the inbound payment event: the buyer pays `amount` of
// `denom` and receives amount/unitPrice consecutive tickets.
type LotteryBuyTx struct {
	Buyer  string `json:"buyer"`
	Denom  string `json:"denom,omitempty"` // defaults to the chain currency
	Amount uint64 `json:"amount"`
}

type LotteryStopTx struct {
	Stopper string `json:"stopper"`
}

type LotteryDrawTx struct {
	Drawer string `json:"drawer"`
}
