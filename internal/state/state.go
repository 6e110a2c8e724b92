package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
)

// MaxTicketCount bounds the configured ticket count of a single game, keeping
// `count * price` style products far away from uint64 overflow territory for
// any sane unit price.
const MaxTicketCount uint64 = 1_000_000

// PoolAccount is the escrow account that holds paid-in ticket funds until the
// game concludes and the payout plan is executed against the bank.
const PoolAccount = "lottery_pool"

type GameStatus string

const (
	GameOpen    GameStatus = "open"
	GameClosed  GameStatus = "closed"
	GameStopped GameStatus = "stopped"
)

// Config holds the admin-settable lottery parameters. Changes only affect the
// next started game: `start` snapshots the values it validated into the Game
// row, so an in-flight game is immune to reconfiguration.
type Config struct {
	Admin              string `json:"admin,omitempty"`
	PlatformFeeAccount string `json:"platformFeeAccount,omitempty"`

	TotalAmount    uint64 `json:"totalAmount,omitempty"`
	TotalCount     uint64 `json:"totalCount,omitempty"`
	FeePercent     uint64 `json:"feePercent,omitempty"`
	StartFee       uint64 `json:"startFee,omitempty"`
	DrawFee        uint64 `json:"drawFee,omitempty"`
	InactivitySecs uint64 `json:"inactivitySecs,omitempty"`
}

// Tracking is the transient per-epoch state owned by the lifecycle manager.
// LastActivityAt == 0 means no purchase has happened since the current game
// started; such a game is never considered timed out.
type Tracking struct {
	CurrentGameID  uint64 `json:"currentGameId,omitempty"`
	LastBuyer      string `json:"lastBuyer,omitempty"`
	LastActivityAt int64  `json:"lastActivityAt,omitempty"`
}

type Winner struct {
	Account  string `json:"account,omitempty"`
	TicketNo uint64 `json:"ticketNo,omitempty"`
}

type Game struct {
	ID           uint64     `json:"id"`
	UnitPrice    uint64     `json:"unitPrice"`
	TotalAmount  uint64     `json:"totalAmount"`
	TotalCount   uint64     `json:"totalCount"`
	Owner        string     `json:"owner"`
	Starter      string     `json:"starter"`
	Drawer       string     `json:"drawer,omitempty"`
	FeePercent   uint64     `json:"feePercent"`
	StartFee     uint64     `json:"startFee"`
	DrawFee      uint64     `json:"drawFee"`
	CreatedAt    int64      `json:"createdAt"`
	CurrentCount uint64     `json:"currentCount"`
	Status       GameStatus `json:"status"`
	Winner       Winner     `json:"winner,omitempty"`
}

// Ticket is one purchased slot. Tickets live in per-game ordered slices; the
// compound key is (gameId, Seq) with Seq contiguous from 1.
type Ticket struct {
	Seq       uint64 `json:"seq"`
	Owner     string `json:"owner"`
	CreatedAt int64  `json:"createdAt"`
}

type State struct {
	Height int64 `json:"height"`

	// Owner is the chain's own identity (genesis-set); it stands in for the
	// original contract account: default admin, and recorded as game owner.
	Owner string `json:"owner,omitempty"`

	Config   Config   `json:"config"`
	Tracking Tracking `json:"tracking"`

	NextGameID uint64               `json:"nextGameId"`
	Games      map[uint64]*Game     `json:"games"`
	Tickets    map[uint64][]*Ticket `json:"tickets"`

	Accounts    map[string]uint64 `json:"accounts"`
	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // addr -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce
}

func NewState() *State {
	return &State{
		Height:      0,
		NextGameID:  1,
		Games:       map[uint64]*Game{},
		Tickets:     map[uint64][]*Ticket{},
		Accounts:    map[string]uint64{},
		AccountKeys: map[string][]byte{},
		NonceMax:    map[string]uint64{},
	}
}

func normalize(st *State) *State {
	if st.Games == nil {
		st.Games = map[uint64]*Game{}
	}
	if st.Tickets == nil {
		st.Tickets = map[uint64][]*Ticket{}
	}
	if st.Accounts == nil {
		st.Accounts = map[string]uint64{}
	}
	if st.AccountKeys == nil {
		st.AccountKeys = map[string][]byte{}
	}
	if st.NonceMax == nil {
		st.NonceMax = map[string]uint64{}
	}
	if st.NextGameID == 0 {
		st.NextGameID = 1
	}
	return st
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	return normalize(&out), nil
}

func (s *State) AppHash() []byte {
	// Deterministic JSON hash: marshal with stable key ordering by serializing
	// a normalized view.
	//
	// Note: encoding/json does NOT guarantee map key order, so we manually
	// normalize maps into slices.
	type accountKV struct {
		Addr    string `json:"addr"`
		Balance uint64 `json:"balance"`
	}
	type accountKeyKV struct {
		Addr   string `json:"addr"`
		PubKey []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type gameKV struct {
		ID   uint64 `json:"id"`
		Game *Game  `json:"game"`
	}
	type ticketsKV struct {
		GameID  uint64    `json:"gameId"`
		Tickets []*Ticket `json:"tickets"`
	}

	accounts := make([]accountKV, 0, len(s.Accounts))
	for k, v := range s.Accounts {
		accounts = append(accounts, accountKV{Addr: k, Balance: v})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Addr < accounts[j].Addr })

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Addr: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Addr < accountKeys[j].Addr })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	games := make([]gameKV, 0, len(s.Games))
	for id, g := range s.Games {
		games = append(games, gameKV{ID: id, Game: g})
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })

	tickets := make([]ticketsKV, 0, len(s.Tickets))
	for id, ts := range s.Tickets {
		tickets = append(tickets, ticketsKV{GameID: id, Tickets: ts})
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].GameID < tickets[j].GameID })

	normalized := struct {
		Height      int64          `json:"height"`
		Owner       string         `json:"owner,omitempty"`
		Config      Config         `json:"config"`
		Tracking    Tracking       `json:"tracking"`
		NextGameID  uint64         `json:"nextGameId"`
		Games       []gameKV       `json:"games"`
		Tickets     []ticketsKV    `json:"tickets"`
		Accounts    []accountKV    `json:"accounts"`
		AccountKeys []accountKeyKV `json:"accountKeys,omitempty"`
		NonceMax    []nonceKV      `json:"nonceMax,omitempty"`
	}{
		Height:      s.Height,
		Owner:       s.Owner,
		Config:      s.Config,
		Tracking:    s.Tracking,
		NextGameID:  s.NextGameID,
		Games:       games,
		Tickets:     tickets,
		Accounts:    accounts,
		AccountKeys: accountKeys,
		NonceMax:    nonces,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Bank ----

func (s *State) Balance(addr string) uint64 {
	return s.Accounts[addr]
}

func (s *State) Credit(addr string, amount uint64) error {
	bal := s.Accounts[addr]
	if bal > ^uint64(0)-amount {
		return fmt.Errorf("balance overflow: have=%d add=%d", bal, amount)
	}
	s.Accounts[addr] = bal + amount
	return nil
}

func (s *State) Debit(addr string, amount uint64) error {
	bal := s.Accounts[addr]
	if bal < amount {
		return fmt.Errorf("insufficient funds: have=%d need=%d", bal, amount)
	}
	s.Accounts[addr] = bal - amount
	return nil
}

// ---- Games ----

// CurrentGame returns the game the tracking pointer references, or nil when
// no game has ever been started.
func (s *State) CurrentGame() *Game {
	if s.Tracking.CurrentGameID == 0 {
		return nil
	}
	return s.Games[s.Tracking.CurrentGameID]
}

// ---- Ticket ledger ----

// IssueTickets appends n tickets owned by buyer to the game's ledger. The
// sequence stays contiguous: the first new ticket gets seq len+1.
func (s *State) IssueTickets(gameID uint64, buyer string, n uint64, now int64) {
	ts := s.Tickets[gameID]
	base := uint64(len(ts))
	for i := uint64(1); i <= n; i++ {
		ts = append(ts, &Ticket{
			Seq:       base + i,
			Owner:     buyer,
			CreatedAt: now,
		})
	}
	s.Tickets[gameID] = ts
}

// TicketAt returns the ticket with 1-based sequence number seq, or nil.
func (s *State) TicketAt(gameID, seq uint64) *Ticket {
	ts := s.Tickets[gameID]
	if seq == 0 || seq > uint64(len(ts)) {
		return nil
	}
	return ts[seq-1]
}

// DeleteTickets removes up to limit tickets for the game in ascending
// sequence order, tolerating fewer than limit existing. It returns the number
// of tickets actually removed.
func (s *State) DeleteTickets(gameID, limit uint64) uint64 {
	ts := s.Tickets[gameID]
	n := uint64(len(ts))
	if n == 0 {
		return 0
	}
	if limit >= n {
		delete(s.Tickets, gameID)
		return n
	}
	s.Tickets[gameID] = ts[limit:]
	return limit
}

// TicketCount returns the number of ledger entries for the game.
func (s *State) TicketCount(gameID uint64) uint64 {
	return uint64(len(s.Tickets[gameID]))
}
