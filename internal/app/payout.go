package app

import (
	"fmt"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/state"
)

// Split is the disbursement plan for a concluded game's gross amount.
// PlatformFee + StartFee + DrawFee + Bonus == gross always holds.
type Split struct {
	PlatformFee uint64
	StartFee    uint64
	DrawFee     uint64
	Bonus       uint64
}

// computeSplit divides gross between the platform, the starter, the drawer
// and the winner. The platform fee is gross*feePercent/100 with integer
// truncation. A non-positive bonus means the fixed fees exceed the pool: a
// fatal misconfiguration, not a user error.
func computeSplit(gross, feePercent, startFee, drawFee uint64) (Split, error) {
	product, err := mulUint64Checked(gross, feePercent, "platform fee")
	if err != nil {
		return Split{}, errorsmod.Wrap(ErrConfiguration, err.Error())
	}
	platformFee := product / 100

	fees, err := addUint64Checked(platformFee, startFee, "fee total")
	if err != nil {
		return Split{}, errorsmod.Wrap(ErrConfiguration, err.Error())
	}
	fees, err = addUint64Checked(fees, drawFee, "fee total")
	if err != nil {
		return Split{}, errorsmod.Wrap(ErrConfiguration, err.Error())
	}
	if gross <= fees {
		return Split{}, errorsmod.Wrapf(ErrConfiguration, "fees %d leave no bonus from gross %d", fees, gross)
	}
	return Split{
		PlatformFee: platformFee,
		StartFee:    startFee,
		DrawFee:     drawFee,
		Bonus:       gross - fees,
	}, nil
}

// PayoutIntent is one instruction to the token ledger. Intents are data, not
// side effects: the orchestrator executes them only after every precondition
// of the concluding operation has passed, because they are not compensable.
type PayoutIntent struct {
	To     string
	Amount uint64
	Memo   string
}

// buildPayouts returns the transfer intents in their fixed order: platform
// fee account, starter, drawer, winner.
func buildPayouts(g *state.Game, sp Split, feeAccount, drawer, winner string) []PayoutIntent {
	id := strconv.FormatUint(g.ID, 10)
	return []PayoutIntent{
		{To: feeAccount, Amount: sp.PlatformFee, Memo: "game " + id + " platform fee"},
		{To: g.Starter, Amount: sp.StartFee, Memo: "game " + id + " start fee"},
		{To: drawer, Amount: sp.DrawFee, Memo: "game " + id + " draw fee"},
		{To: winner, Amount: sp.Bonus, Memo: "game " + id + " bonus"},
	}
}

// executePayouts moves each intent's amount from the pool escrow to its
// recipient and emits one PayoutSent event per transfer. The pool holds
// exactly the paid-in funds, so a debit failure here is a state corruption
// and aborts the tx.
func executePayouts(st *state.State, intents []PayoutIntent) ([]abci.Event, error) {
	events := make([]abci.Event, 0, len(intents))
	for _, in := range intents {
		if err := st.Debit(state.PoolAccount, in.Amount); err != nil {
			return nil, errorsmod.Wrapf(ErrIntegrity, "pool escrow: %v", err)
		}
		if err := st.Credit(in.To, in.Amount); err != nil {
			return nil, errorsmod.Wrapf(ErrIntegrity, "payout credit: %v", err)
		}
		events = append(events, abci.Event{
			Type: "PayoutSent",
			Attributes: []abci.EventAttribute{
				{Key: "to", Value: in.To, Index: true},
				{Key: "amount", Value: fmt.Sprintf("%d", in.Amount), Index: false},
				{Key: "memo", Value: in.Memo, Index: false},
			},
		})
	}
	return events, nil
}
