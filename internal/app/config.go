package app

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/codec"
	"onchainlottery/internal/state"
)

// Recognized set_state keys. Numeric unless noted. Changes only take effect
// for the next started game; the current game carries its own snapshot.
const (
	keyTotalAmount        = "total_amount"
	keyTotalCount         = "total_count"
	keyFeePercent         = "fee_percent"
	keyStartFee           = "start_fee"
	keyDrawFee            = "draw_fee"
	keyInactivitySecs     = "inactivity_secs"
	keyPlatformFeeAccount = "platform_fee_account" // account-valued
)

// currentAdmin returns the configured admin, defaulting to the chain owner
// when unset.
func currentAdmin(st *state.State) string {
	if st.Config.Admin != "" {
		return st.Config.Admin
	}
	return st.Owner
}

func applySetAdmin(st *state.State, env codec.TxEnvelope, msg codec.LotterySetAdminTx) (*abci.ExecTxResult, error) {
	if msg.Admin == "" {
		return nil, errorsmod.Wrap(ErrValidation, "missing admin")
	}
	if st.Owner == "" {
		return nil, errorsmod.Wrap(ErrConfiguration, "chain owner not set")
	}
	if err := requireAccountAuth(st, env, st.Owner); err != nil {
		return nil, err
	}
	st.Config.Admin = msg.Admin
	return okEvent("AdminChanged", map[string]string{"admin": msg.Admin}), nil
}

func applySetState(st *state.State, env codec.TxEnvelope, msg codec.LotterySetStateTx) (*abci.ExecTxResult, error) {
	if err := requireAccountAuth(st, env, currentAdmin(st)); err != nil {
		return nil, err
	}

	attrs := map[string]string{"key": msg.Key}
	switch msg.Key {
	case keyTotalAmount:
		st.Config.TotalAmount = msg.Value
	case keyTotalCount:
		st.Config.TotalCount = msg.Value
	case keyFeePercent:
		st.Config.FeePercent = msg.Value
	case keyStartFee:
		st.Config.StartFee = msg.Value
	case keyDrawFee:
		st.Config.DrawFee = msg.Value
	case keyInactivitySecs:
		st.Config.InactivitySecs = msg.Value
	case keyPlatformFeeAccount:
		if msg.Account == "" {
			return nil, errorsmod.Wrapf(ErrValidation, "key %q needs an account value", msg.Key)
		}
		st.Config.PlatformFeeAccount = msg.Account
		attrs["account"] = msg.Account
		return okEvent("StateChanged", attrs), nil
	default:
		return nil, errorsmod.Wrapf(ErrValidation, "unknown config key %q", msg.Key)
	}
	attrs["value"] = fmt.Sprintf("%d", msg.Value)
	return okEvent("StateChanged", attrs), nil
}
