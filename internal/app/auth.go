package app

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/codec"
	"onchainlottery/internal/state"
)

const txAuthDomainV0 = "ocl/tx/v0"

func txAuthSignBytesV0(typ string, value []byte, nonce string, signer string) []byte {
	// signBytes = DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || sha256(value)
	sum := sha256.Sum256(value)
	out := make([]byte, 0, len(txAuthDomainV0)+1+len(typ)+1+len(nonce)+1+len(signer)+1+sha256.Size)
	out = append(out, []byte(txAuthDomainV0)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, []byte(nonce)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == "" {
		return errorsmod.Wrap(ErrUnauthorized, "missing tx.nonce")
	}
	if env.Signer == "" {
		return errorsmod.Wrap(ErrUnauthorized, "missing tx.signer")
	}
	if len(env.Sig) == 0 {
		return errorsmod.Wrap(ErrUnauthorized, "missing tx.sig")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return errorsmod.Wrapf(ErrUnauthorized, "invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

func requireRegisterAccountAuth(env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if msg.Account == "" {
		return errorsmod.Wrap(ErrValidation, "missing account")
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return errorsmod.Wrapf(ErrValidation, "pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != msg.Account {
		return errorsmod.Wrapf(ErrUnauthorized, "tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	pub := ed25519.PublicKey(msg.PubKey)
	msgBytes := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(pub, msgBytes, env.Sig) {
		return errorsmod.Wrap(ErrUnauthorized, "invalid signature")
	}
	return nil
}

// requireAccountAuth verifies that `account` authorized this envelope with
// its registered key.
func requireAccountAuth(st *state.State, env codec.TxEnvelope, account string) error {
	if account == "" {
		return errorsmod.Wrap(ErrUnauthorized, "missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != account {
		return errorsmod.Wrapf(ErrUnauthorized, "tx signer mismatch: signer=%q want=%q", env.Signer, account)
	}
	pub := st.AccountKeys[account]
	if len(pub) != ed25519.PublicKeySize {
		return errorsmod.Wrapf(ErrUnauthorized, "account %q missing pubKey (auth/register_account required)", account)
	}
	msg := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, env.Sig) {
		return errorsmod.Wrap(ErrUnauthorized, "invalid signature")
	}
	return nil
}

// applyRegisterAccount binds an ed25519 public key to an account name. The
// envelope must be self-signed with the key being registered. Re-registering
// with a different key is rejected so a key cannot be silently rotated.
func applyRegisterAccount(st *state.State, env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) (*abci.ExecTxResult, error) {
	if err := requireRegisterAccountAuth(env, msg); err != nil {
		return nil, err
	}
	if existing, ok := st.AccountKeys[msg.Account]; ok {
		if !bytes.Equal(existing, msg.PubKey) {
			return nil, errorsmod.Wrapf(ErrUnauthorized, "account %q already registered with a different key", msg.Account)
		}
	} else {
		st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
	}
	return okEvent("AccountRegistered", map[string]string{
		"account": msg.Account,
	}), nil
}

// consumeNonce enforces strictly increasing numeric nonces per signer.
func consumeNonce(st *state.State, env codec.TxEnvelope) error {
	if env.Signer == "" || env.Nonce == "" {
		return nil
	}
	n, err := strconv.ParseUint(env.Nonce, 10, 64)
	if err != nil {
		return errorsmod.Wrapf(ErrValidation, "invalid tx.nonce %q", env.Nonce)
	}
	if n <= st.NonceMax[env.Signer] {
		return errorsmod.Wrapf(ErrValidation, "replayed tx.nonce %d for signer %q", n, env.Signer)
	}
	st.NonceMax[env.Signer] = n
	return nil
}
