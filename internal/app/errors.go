package app

import (
	errorsmod "cosmossdk.io/errors"

	abci "github.com/cometbft/cometbft/abci/types"
)

const errCodespace = "lottery"

// Sentinel errors, one per failure class. Every handler failure wraps one of
// these so the ABCI result code identifies the class while the log carries
// the specific reason. Code 1 is reserved by the errors module.
var (
	// ErrUnauthorized: the caller lacks the required permission.
	ErrUnauthorized = errorsmod.Register(errCodespace, 2, "unauthorized")
	// ErrConfiguration: stored parameters are inconsistent (non-exact
	// division, fee bounds violated, fixed fees exceeding the pool).
	ErrConfiguration = errorsmod.Register(errCodespace, 3, "invalid configuration")
	// ErrState: the operation arrived in the wrong lifecycle phase.
	ErrState = errorsmod.Register(errCodespace, 4, "wrong game state")
	// ErrValidation: malformed input amount or currency.
	ErrValidation = errorsmod.Register(errCodespace, 5, "invalid request")
	// ErrIntegrity: ticket ledger lookup inconsistency. Fatal, never
	// tolerated silently.
	ErrIntegrity = errorsmod.Register(errCodespace, 6, "ledger integrity violation")
)

func errResult(err error) *abci.ExecTxResult {
	space, code, _ := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{
		Code:      code,
		Codespace: space,
		Log:       err.Error(),
	}
}
