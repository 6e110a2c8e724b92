package app

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/codec"
	"onchainlottery/internal/state"
)

// currencyDenom is the single asset this chain's bank tracks. An inbound
// payment naming any other denom is rejected before it can buy tickets.
const currencyDenom = "lot"

func applyStart(st *state.State, env codec.TxEnvelope, msg codec.LotteryStartTx, nowUnix int64) (*abci.ExecTxResult, error) {
	if msg.Starter == "" {
		return nil, errorsmod.Wrap(ErrValidation, "missing starter")
	}
	if err := requireAccountAuth(st, env, msg.Starter); err != nil {
		return nil, err
	}

	cfg := st.Config
	if cfg.TotalAmount == 0 {
		return nil, errorsmod.Wrap(ErrConfiguration, "game amount must be greater than 0")
	}
	if cfg.TotalCount == 0 || cfg.TotalCount >= state.MaxTicketCount {
		return nil, errorsmod.Wrapf(ErrConfiguration, "ticket count must be in (0, %d)", state.MaxTicketCount)
	}
	unitPrice := cfg.TotalAmount / cfg.TotalCount
	// Remainder-free division is enforced explicitly; the product cannot
	// overflow because it is bounded by TotalAmount.
	if unitPrice*cfg.TotalCount != cfg.TotalAmount {
		return nil, errorsmod.Wrapf(ErrConfiguration, "game amount %d is not an exact multiple of unit price %d", cfg.TotalAmount, unitPrice)
	}
	if cfg.FeePercent == 0 || cfg.FeePercent >= 100 {
		return nil, errorsmod.Wrap(ErrConfiguration, "fee percent must be in (0, 100)")
	}
	if g := st.CurrentGame(); g != nil && g.Status == state.GameOpen {
		return nil, errorsmod.Wrap(ErrState, "current game is still open")
	}

	id := st.NextGameID
	st.NextGameID++
	g := &state.Game{
		ID:          id,
		UnitPrice:   unitPrice,
		TotalAmount: cfg.TotalAmount,
		TotalCount:  cfg.TotalCount,
		Owner:       st.Owner,
		Starter:     msg.Starter,
		FeePercent:  cfg.FeePercent,
		StartFee:    cfg.StartFee,
		DrawFee:     cfg.DrawFee,
		CreatedAt:   nowUnix,
		Status:      state.GameOpen,
	}
	st.Games[id] = g

	// New tracking epoch: no last buyer, no activity yet.
	st.Tracking = state.Tracking{CurrentGameID: id}

	return okEvent("GameStarted", map[string]string{
		"gameId":     fmt.Sprintf("%d", id),
		"starter":    msg.Starter,
		"unitPrice":  fmt.Sprintf("%d", unitPrice),
		"totalCount": fmt.Sprintf("%d", cfg.TotalCount),
	}), nil
}

// currentOpenGame fetches the game the tracking pointer references and
// asserts it is still open.
func currentOpenGame(st *state.State) (*state.Game, error) {
	g := st.CurrentGame()
	if g == nil {
		return nil, errorsmod.Wrap(ErrState, "no current game")
	}
	if g.Status != state.GameOpen {
		return nil, errorsmod.Wrap(ErrState, "current game is not open")
	}
	return g, nil
}

func applyBuy(st *state.State, env codec.TxEnvelope, msg codec.LotteryBuyTx, nowUnix int64) (*abci.ExecTxResult, error) {
	if msg.Buyer == "" {
		return nil, errorsmod.Wrap(ErrValidation, "missing buyer")
	}
	if err := requireAccountAuth(st, env, msg.Buyer); err != nil {
		return nil, err
	}
	if msg.Denom != "" && msg.Denom != currencyDenom {
		return nil, errorsmod.Wrapf(ErrValidation, "unsupported denom %q, want %q", msg.Denom, currencyDenom)
	}
	if msg.Amount == 0 {
		return nil, errorsmod.Wrap(ErrValidation, "must pay a positive amount")
	}

	g, err := currentOpenGame(st)
	if err != nil {
		return nil, err
	}

	count := msg.Amount / g.UnitPrice
	if count == 0 || count*g.UnitPrice != msg.Amount {
		return nil, errorsmod.Wrapf(ErrValidation, "amount %d is not an exact multiple of unit price %d", msg.Amount, g.UnitPrice)
	}
	newCount, err := addUint64Checked(g.CurrentCount, count, "ticket count")
	if err != nil {
		return nil, errorsmod.Wrap(ErrValidation, err.Error())
	}
	if newCount > g.TotalCount {
		return nil, errorsmod.Wrapf(ErrState, "%d tickets exceed remaining %d", count, g.TotalCount-g.CurrentCount)
	}
	// A purchase after the inactivity window has elapsed is rejected even
	// though the game has not yet been formally stopped.
	if isTimedOut(st.Tracking, st.Config.InactivitySecs, nowUnix) {
		return nil, errorsmod.Wrap(ErrState, "current game timed out")
	}

	if err := st.Debit(msg.Buyer, msg.Amount); err != nil {
		return nil, errorsmod.Wrap(ErrValidation, err.Error())
	}
	if err := st.Credit(state.PoolAccount, msg.Amount); err != nil {
		return nil, errorsmod.Wrap(ErrValidation, err.Error())
	}

	st.IssueTickets(g.ID, msg.Buyer, count, nowUnix)
	g.CurrentCount = newCount
	st.Tracking.LastBuyer = msg.Buyer
	st.Tracking.LastActivityAt = nowUnix

	return okEvent("TicketsPurchased", map[string]string{
		"gameId":      fmt.Sprintf("%d", g.ID),
		"buyer":       msg.Buyer,
		"count":       fmt.Sprintf("%d", count),
		"firstTicket": fmt.Sprintf("%d", newCount-count+1),
		"lastTicket":  fmt.Sprintf("%d", newCount),
	}), nil
}
