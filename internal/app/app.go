package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchainlottery/internal/codec"
	"onchainlottery/internal/state"
)

const (
	AppVersion uint64 = 1
)

type OCLApp struct {
	*abci.BaseApplication

	logger log.Logger
	store  *state.Store

	mu       sync.Mutex
	st       *state.State
	lastHash []byte

	// entropy supplies per-block randomness for winner draws. Production
	// runs use blockHash; tests inject a fixed provider.
	entropy   EntropyProvider
	blockHash *blockEntropy
}

func New(home string, logger log.Logger) (*OCLApp, error) {
	store, err := state.Open(home)
	if err != nil {
		return nil, err
	}
	st, err := store.Load()
	if err != nil {
		store.Close()
		return nil, err
	}
	be := &blockEntropy{}
	a := &OCLApp{
		BaseApplication: abci.NewBaseApplication(),
		logger:          logger,
		store:           store,
		st:              st,
		lastHash:        st.AppHash(),
		entropy:         be,
		blockHash:       be,
	}
	return a, nil
}

func (a *OCLApp) Close() error {
	return a.store.Close()
}

func (a *OCLApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "OCL (v0)",
		Version:          "v0",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *OCLApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	_, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	// Only structural validation here; auth and state checks run in
	// FinalizeBlock where ordering is deterministic.
	return &abci.CheckTxResponse{Code: 0}, nil
}

// genesisDoc is the app_state payload accepted at InitChain.
type genesisDoc struct {
	Owner    string            `json:"owner"`
	Config   *state.Config     `json:"config,omitempty"`
	Balances map[string]uint64 `json:"balances,omitempty"`
}

func (a *OCLApp) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Genesis only applies to a fresh store; a restarted node keeps its
	// persisted state.
	if a.st.Height > 0 {
		return &abci.InitChainResponse{AppHash: a.lastHash}, nil
	}
	if len(req.AppStateBytes) > 0 {
		var doc genesisDoc
		if err := json.Unmarshal(req.AppStateBytes, &doc); err != nil {
			return nil, fmt.Errorf("parse genesis app_state: %w", err)
		}
		if doc.Owner != "" {
			a.st.Owner = doc.Owner
		}
		if doc.Config != nil {
			a.st.Config = *doc.Config
		}
		for addr, amt := range doc.Balances {
			if err := a.st.Credit(addr, amt); err != nil {
				return nil, fmt.Errorf("genesis balance for %s: %w", addr, err)
			}
		}
		a.lastHash = a.st.AppHash()
	}
	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func (a *OCLApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	a.blockHash.SetHash(req.Hash)
	nowUnix := req.Time.Unix()

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height, nowUnix)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *OCLApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Persist after each block; an error here must halt the node loudly.
	if err := a.store.Save(a.st); err != nil {
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

func (a *OCLApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Paths:
	// - /config
	// - /tracking
	// - /games
	// - /game/current
	// - /game/<id>
	// - /tickets/<gameId>
	// - /account/<addr>
	path := strings.TrimSpace(req.Path)
	switch {
	case path == "/config":
		b, _ := json.Marshal(a.st.Config)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case path == "/tracking":
		b, _ := json.Marshal(a.st.Tracking)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case path == "/games":
		ids := make([]uint64, 0, len(a.st.Games))
		for id := range a.st.Games {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		b, _ := json.Marshal(ids)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case path == "/game/current":
		g := a.st.CurrentGame()
		if g == nil {
			return &abci.QueryResponse{Code: 1, Log: "no current game", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(g)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/game/"):
		raw := strings.TrimPrefix(path, "/game/")
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return &abci.QueryResponse{Code: 1, Log: "invalid game id", Height: a.st.Height}, nil
		}
		g, ok := a.st.Games[id]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "game not found", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(g)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/tickets/"):
		raw := strings.TrimPrefix(path, "/tickets/")
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return &abci.QueryResponse{Code: 1, Log: "invalid game id", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(a.st.Tickets[id])
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/account/"):
		addr := strings.TrimPrefix(path, "/account/")
		bal := a.st.Balance(addr)
		b, _ := json.Marshal(map[string]any{"addr": addr, "balance": bal})
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	default:
		return &abci.QueryResponse{Code: 1, Log: "unknown query path", Height: a.st.Height}, nil
	}
}

func (a *OCLApp) deliverTx(txBytes []byte, height int64, nowUnix int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	// Execute against a clone so a failed tx cannot leave partial writes
	// behind. The clone replaces the live state only on success.
	staged, err := a.st.Clone()
	if err != nil {
		return errResult(errorsmod.Wrap(ErrIntegrity, "clone state: "+err.Error()))
	}

	res, err := a.execTx(staged, env, height, nowUnix)
	if err != nil {
		return errResult(err)
	}
	a.st = staged
	return res
}

func (a *OCLApp) execTx(st *state.State, env codec.TxEnvelope, height int64, nowUnix int64) (*abci.ExecTxResult, error) {
	// bank/mint is the unsigned devnet faucet; everything else consumes a
	// signed, strictly increasing nonce.
	if env.Type != "bank/mint" {
		if err := consumeNonce(st, env); err != nil {
			return nil, err
		}
	}

	switch env.Type {
	case "auth/register_account":
		var msg codec.AuthRegisterAccountTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, "bad auth/register_account value")
		}
		return applyRegisterAccount(st, env, msg)

	case "bank/mint":
		var msg codec.BankMintTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, "bad bank/mint value")
		}
		if msg.To == "" || msg.Amount == 0 {
			return nil, errorsmod.Wrap(ErrValidation, "missing to/amount")
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, err.Error())
		}
		return okEvent("BankMinted", map[string]string{
			"to":     msg.To,
			"amount": fmt.Sprintf("%d", msg.Amount),
		}), nil

	case "bank/send":
		var msg codec.BankSendTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, "bad bank/send value")
		}
		if msg.From == "" || msg.To == "" || msg.Amount == 0 {
			return nil, errorsmod.Wrap(ErrValidation, "missing from/to/amount")
		}
		if err := requireAccountAuth(st, env, msg.From); err != nil {
			return nil, err
		}
		if err := st.Debit(msg.From, msg.Amount); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, err.Error())
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, err.Error())
		}
		return okEvent("BankSent", map[string]string{
			"from":   msg.From,
			"to":     msg.To,
			"amount": fmt.Sprintf("%d", msg.Amount),
		}), nil

	case "lottery/set_admin":
		var msg codec.LotterySetAdminTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, "bad lottery/set_admin value")
		}
		return applySetAdmin(st, env, msg)

	case "lottery/set_state":
		var msg codec.LotterySetStateTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, "bad lottery/set_state value")
		}
		return applySetState(st, env, msg)

	case "lottery/start":
		var msg codec.LotteryStartTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, "bad lottery/start value")
		}
		res, err := applyStart(st, env, msg, nowUnix)
		if err == nil {
			a.logger.Info("game started", "gameId", st.Tracking.CurrentGameID, "starter", msg.Starter)
		}
		return res, err

	case "lottery/buy":
		var msg codec.LotteryBuyTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, "bad lottery/buy value")
		}
		return applyBuy(st, env, msg, nowUnix)

	case "lottery/stop":
		var msg codec.LotteryStopTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, "bad lottery/stop value")
		}
		res, err := applyStop(st, env, msg, nowUnix)
		if err == nil {
			a.logger.Info("game stopped", "gameId", st.Tracking.CurrentGameID, "stopper", msg.Stopper)
		}
		return res, err

	case "lottery/draw":
		var msg codec.LotteryDrawTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrValidation, "bad lottery/draw value")
		}
		res, err := applyDraw(st, env, msg, nowUnix, a.entropy.Entropy(height))
		if err == nil {
			a.logger.Info("game drawn", "gameId", st.Tracking.CurrentGameID, "drawer", msg.Drawer)
		}
		return res, err

	default:
		return nil, errorsmod.Wrapf(ErrValidation, "unknown tx type: %s", env.Type)
	}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return &abci.ExecTxResult{
		Code:   0,
		Events: []abci.Event{ev},
	}
}
