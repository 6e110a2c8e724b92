package app

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/codec"
	"onchainlottery/internal/state"
)

func applyDraw(st *state.State, env codec.TxEnvelope, msg codec.LotteryDrawTx, nowUnix int64, entropy []byte) (*abci.ExecTxResult, error) {
	if msg.Drawer == "" {
		return nil, errorsmod.Wrap(ErrValidation, "missing drawer")
	}
	if err := requireAccountAuth(st, env, msg.Drawer); err != nil {
		return nil, err
	}

	g, err := currentOpenGame(st)
	if err != nil {
		return nil, err
	}
	if g.CurrentCount != g.TotalCount {
		return nil, errorsmod.Wrapf(ErrState, "current game is not full, %d of %d tickets sold", g.CurrentCount, g.TotalCount)
	}
	feeAccount := st.Config.PlatformFeeAccount
	if feeAccount == "" {
		return nil, errorsmod.Wrap(ErrConfiguration, "platform fee account is not configured")
	}

	sp, err := computeSplit(g.TotalAmount, g.FeePercent, g.StartFee, g.DrawFee)
	if err != nil {
		return nil, err
	}

	winNo := drawWinner(entropy, g.ID, g.CreatedAt, nowUnix, g.TotalCount)
	tk := st.TicketAt(g.ID, winNo)
	if tk == nil {
		return nil, errorsmod.Wrapf(ErrIntegrity, "winning ticket %d not found in game %d", winNo, g.ID)
	}
	if tk.Owner == "" || tk.Seq != winNo {
		return nil, errorsmod.Wrapf(ErrIntegrity, "winning ticket %d is corrupt", winNo)
	}

	g.Status = state.GameClosed
	g.Drawer = msg.Drawer
	g.Winner = state.Winner{Account: tk.Owner, TicketNo: winNo}

	intents := buildPayouts(g, sp, feeAccount, msg.Drawer, tk.Owner)
	events, err := executePayouts(st, intents)
	if err != nil {
		return nil, err
	}
	st.DeleteTickets(g.ID, g.TotalCount)

	res := okEvent("GameClosed", map[string]string{
		"gameId":   fmt.Sprintf("%d", g.ID),
		"drawer":   msg.Drawer,
		"winner":   tk.Owner,
		"ticketNo": fmt.Sprintf("%d", winNo),
		"bonus":    fmt.Sprintf("%d", sp.Bonus),
	})
	res.Events = append(res.Events, events...)
	return res, nil
}

func applyStop(st *state.State, env codec.TxEnvelope, msg codec.LotteryStopTx, nowUnix int64) (*abci.ExecTxResult, error) {
	if msg.Stopper == "" {
		return nil, errorsmod.Wrap(ErrValidation, "missing stopper")
	}
	if err := requireAccountAuth(st, env, msg.Stopper); err != nil {
		return nil, err
	}

	g, err := currentOpenGame(st)
	if err != nil {
		return nil, err
	}
	if g.CurrentCount >= g.TotalCount {
		return nil, errorsmod.Wrap(ErrState, "current game is full, draw it instead")
	}
	if !isTimedOut(st.Tracking, st.Config.InactivitySecs, nowUnix) {
		return nil, errorsmod.Wrap(ErrState, "current game has not timed out")
	}
	feeAccount := st.Config.PlatformFeeAccount
	if feeAccount == "" {
		return nil, errorsmod.Wrap(ErrConfiguration, "platform fee account is not configured")
	}

	gross, err := mulUint64Checked(g.UnitPrice, g.CurrentCount, "pot")
	if err != nil {
		return nil, errorsmod.Wrap(ErrIntegrity, err.Error())
	}
	sp, err := computeSplit(gross, g.FeePercent, g.StartFee, g.DrawFee)
	if err != nil {
		return nil, err
	}

	winner := st.Tracking.LastBuyer
	if winner == "" {
		return nil, errorsmod.Wrap(ErrIntegrity, "timed-out game has no last buyer")
	}

	g.Status = state.GameStopped
	g.Drawer = msg.Stopper
	g.Winner = state.Winner{Account: winner, TicketNo: g.CurrentCount}

	intents := buildPayouts(g, sp, feeAccount, msg.Stopper, winner)
	events, err := executePayouts(st, intents)
	if err != nil {
		return nil, err
	}
	st.DeleteTickets(g.ID, g.TotalCount)

	res := okEvent("GameStopped", map[string]string{
		"gameId":  fmt.Sprintf("%d", g.ID),
		"stopper": msg.Stopper,
		"winner":  winner,
		"bonus":   fmt.Sprintf("%d", sp.Bonus),
	})
	res.Events = append(res.Events, events...)
	return res, nil
}
