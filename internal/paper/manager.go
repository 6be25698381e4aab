// Package paper runs the simulated position lifecycle: open, mark,
// exit evaluation and partial or full close against a cash balance.
//
// All state lives behind one mutex in Manager. Every mutation is written
// to the stores before the lock is released, so a crash loses at most the
// operation in flight. The in-memory state stays authoritative: when a
// store write fails the error is returned together with the result.
package paper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/execution"
	"solana-revival-lab/internal/idhash"
	"solana-revival-lab/internal/storage"
	"solana-revival-lab/internal/storage/memory"
	"solana-revival-lab/internal/strategy"
)

// Manager errors
var (
	ErrPositionNotFound = errors.New("position not found")
	ErrPositionClosed   = errors.New("position already closed")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrInvalidExitType  = errors.New("unknown exit type")
)

// closedEpsilon is the remaining percentage below which a position is closed.
const closedEpsilon = 0.01

// PriceSource returns the current USD price of a token.
type PriceSource interface {
	Price(ctx context.Context, address string) (float64, error)
}

// Options wires a Manager. Nil stores default to in-memory stores.
type Options struct {
	Config    Config
	Prices    PriceSource
	Simulator *execution.Simulator

	Positions storage.PositionStore
	Trades    storage.TradeStore
	Account   storage.AccountStore
	Snapshots storage.SnapshotStore

	Now    func() time.Time
	NewID  func() string
	Logger zerolog.Logger
}

// Manager owns every position and the cash balance of one session.
type Manager struct {
	cfg    Config
	plan   *strategy.ExitPlan
	sim    *execution.Simulator
	prices PriceSource

	positionStore storage.PositionStore
	tradeStore    storage.TradeStore
	accountStore  storage.AccountStore
	snapshotStore storage.SnapshotStore

	now   func() time.Time
	newID func() string
	log   zerolog.Logger

	events chan Event

	mu        sync.Mutex
	cash      float64
	positions map[string]*domain.Position
	// openByToken maps token address to its open position id.
	openByToken map[string]string
}

// NewManager validates the config and builds a manager with a fresh balance.
// Call Restore to resume a persisted session.
func NewManager(opts Options) (*Manager, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("paper config: %w", err)
	}
	plan, err := strategy.FromConfig(opts.Config.Exit)
	if err != nil {
		return nil, fmt.Errorf("exit plan: %w", err)
	}

	m := &Manager{
		cfg:           opts.Config,
		plan:          plan,
		sim:           opts.Simulator,
		prices:        opts.Prices,
		positionStore: opts.Positions,
		tradeStore:    opts.Trades,
		accountStore:  opts.Account,
		snapshotStore: opts.Snapshots,
		now:           opts.Now,
		newID:         opts.NewID,
		log:           opts.Logger.With().Str("component", "paper").Logger(),
		cash:          opts.Config.InitialBalanceUSD,
		positions:     make(map[string]*domain.Position),
		openByToken:   make(map[string]string),
	}
	if m.sim == nil {
		m.sim = execution.NewSimulator(opts.Config.Execution, nil)
	}
	if m.positionStore == nil {
		m.positionStore = memory.NewPositionStore()
	}
	if m.tradeStore == nil {
		m.tradeStore = memory.NewTradeStore()
	}
	if m.accountStore == nil {
		m.accountStore = memory.NewAccountStore()
	}
	if m.snapshotStore == nil {
		m.snapshotStore = memory.NewSnapshotStore()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}

	buf := opts.Config.EventBuffer
	if buf <= 0 {
		buf = 1
	}
	m.events = make(chan Event, buf)

	m.log.Debug().Strs("exit_rules", plan.IDs()).Msg("exit plan ready")
	return m, nil
}

// Config returns the session configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Events returns lifecycle notifications. Events are dropped when the buffer is full.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Restore loads the account and open positions from storage.
// A missing account starts a new session at the initial balance.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, err := m.accountStore.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.cash = m.cfg.InitialBalanceUSD
		if err := m.saveAccount(ctx); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("load account: %w", err)
	default:
		m.cash = acct.CashBalanceUSD
	}

	open, err := m.positionStore.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("load open positions: %w", err)
	}
	m.positions = make(map[string]*domain.Position, len(open))
	m.openByToken = make(map[string]string, len(open))
	for _, p := range open {
		m.positions[p.ID] = p
		m.openByToken[p.TokenAddress] = p.ID
	}

	m.log.Info().Float64("cash", m.cash).Int("open", len(open)).Msg("session restored")
	return nil
}

// Open buys a fixed-size position at the current market price.
// Refusals are returned as *Rejection.
func (m *Manager) Open(ctx context.Context, address, symbol string, score float64) (*domain.Position, error) {
	m.mu.Lock()
	rej := m.checkCapacity(address)
	m.mu.Unlock()
	if rej != nil {
		return nil, rej
	}

	// The lookup may be slow, so it runs unlocked and capacity is checked again after.
	if m.prices == nil {
		return nil, &Rejection{Reason: RejectPriceUnavailable, Detail: "no price source"}
	}
	price, err := m.prices.Price(ctx, address)
	if err != nil {
		return nil, &Rejection{Reason: RejectPriceUnavailable, Detail: err.Error()}
	}
	if price <= 0 {
		return nil, &Rejection{Reason: RejectPriceUnavailable, Detail: fmt.Sprintf("non-positive price %v", price)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rej := m.checkCapacity(address); rej != nil {
		return nil, rej
	}

	fill := m.sim.Entry(price, m.cfg.PositionSizeUSD)
	sl, tp1, tp2 := strategy.TriggerPrices(fill.ExecutionPrice, m.cfg.Exit)
	nowMs := m.now().UnixMilli()

	pos := &domain.Position{
		ID:                 m.newID(),
		TokenAddress:       address,
		Symbol:             symbol,
		RevivalScore:       score,
		EntryTime:          nowMs,
		EntryPrice:         fill.ExecutionPrice,
		MarketPriceAtEntry: price,
		StopLossPrice:      sl,
		TakeProfit1Price:   tp1,
		TakeProfit2Price:   tp2,
		PositionSizeUSD:    fill.PositionSize,
		QuantityUSD:        fill.NetNotional,
		EntryFeeUSD:        fill.FeeUSD,
		RemainingPct:       100,
		Status:             domain.PositionOpen,
		CurrentPrice:       fill.ExecutionPrice,
		LastUpdate:         nowMs,
	}

	m.cash -= fill.PositionSize
	m.positions[pos.ID] = pos
	m.openByToken[address] = pos.ID

	m.log.Info().
		Str("position", pos.ID).
		Str("symbol", symbol).
		Float64("entry_price", pos.EntryPrice).
		Float64("score", score).
		Float64("cash", m.cash).
		Msg("position opened")

	m.emit(Event{Type: EventOpened, Position: *pos})

	out := *pos
	if err := m.persistPosition(ctx, pos); err != nil {
		return &out, err
	}
	if err := m.saveAccount(ctx); err != nil {
		return &out, err
	}
	return &out, nil
}

// checkCapacity returns a rejection when a new position cannot be opened. Caller holds m.mu.
func (m *Manager) checkCapacity(address string) *Rejection {
	if id, ok := m.openByToken[address]; ok {
		return &Rejection{Reason: RejectAlreadyOpen, Detail: "open position " + id}
	}
	if limit := m.cfg.MaxPositions; limit > 0 && len(m.openByToken) >= limit {
		return &Rejection{Reason: RejectMaxPositions, Detail: fmt.Sprintf("%d positions open", limit)}
	}
	if m.cash < m.cfg.PositionSizeUSD {
		return &Rejection{
			Reason: RejectInsufficientCash,
			Detail: fmt.Sprintf("cash $%.2f below position size $%.2f", m.cash, m.cfg.PositionSizeUSD),
		}
	}
	return nil
}

// Mark records the latest price of an open position. It never exits.
func (m *Manager) Mark(ctx context.Context, id string, price float64) error {
	if price <= 0 {
		return ErrInvalidPrice
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pos, err := m.openPosition(id)
	if err != nil {
		return err
	}
	m.markLocked(pos, price)
	return m.persistPosition(ctx, pos)
}

func (m *Manager) markLocked(pos *domain.Position, price float64) {
	pos.CurrentPrice = price
	pos.CurrentPnLPct = (price - pos.EntryPrice) / pos.EntryPrice * 100
	pos.LastUpdate = m.now().UnixMilli()
}

// EvaluateExit returns the exit the position would take at price, if any.
func (m *Manager) EvaluateExit(id string, price float64) (domain.ExitType, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, err := m.openPosition(id)
	if err != nil {
		return "", false, err
	}
	exitType, ok := m.plan.Evaluate(pos, price, m.now().UnixMilli())
	return exitType, ok, nil
}

// Close sells part or all of a position. The returned trade may carry a
// different exit type than requested when a stop-loss fails to fill.
// A second close on a closed position returns ErrPositionClosed.
func (m *Manager) Close(ctx context.Context, id string, exitType domain.ExitType, price float64) (*domain.Trade, error) {
	if !exitType.IsValid() || exitType == domain.ExitFailed {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExitType, exitType)
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pos, err := m.openPosition(id)
	if err != nil {
		return nil, err
	}

	fill := m.sim.Exit(execution.ExitRequest{
		ExitType:     exitType,
		CurrentPrice: price,
		EntryPrice:   pos.EntryPrice,
		QuantityUSD:  pos.QuantityUSD,
		RemainingPct: pos.RemainingPct,
	})

	now := m.now()
	nowMs := now.UnixMilli()
	m.markLocked(pos, price)

	pos.ExitCount++
	pos.RemainingPct -= fill.SellPct
	evType := EventPartial
	if pos.RemainingPct < closedEpsilon {
		pos.RemainingPct = 0
		pos.Status = domain.PositionClosed
		pos.ClosedAt = nowMs
		delete(m.openByToken, pos.TokenAddress)
		evType = EventClosed
	}
	m.cash += fill.CashCredit()

	trade := &domain.Trade{
		TradeID:      idhash.ComputeTradeID(pos.ID, fill.ExitType, nowMs, pos.ExitCount),
		PositionID:   pos.ID,
		TokenAddress: pos.TokenAddress,
		Symbol:       pos.Symbol,
		EntryPrice:   pos.EntryPrice,
		EntryTime:    pos.EntryTime,
		ExitPrice:    fill.ExecutionPrice,
		ExitTime:     nowMs,
		ExitType:     fill.ExitType,
		QuantityUSD:  fill.SellValueUSD,
		SellPct:      fill.SellPct,
		PnLUSD:       fill.NetPnLUSD,
		PnLPct:       fill.PnLPct,
		FeesPaid:     fill.FeeUSD,
		HoldDays:     strategy.HoldDays(pos.EntryTime, nowMs),
	}

	m.log.Info().
		Str("position", pos.ID).
		Str("symbol", pos.Symbol).
		Str("exit_type", string(trade.ExitType)).
		Float64("exit_price", trade.ExitPrice).
		Float64("pnl_usd", trade.PnLUSD).
		Float64("remaining_pct", pos.RemainingPct).
		Float64("cash", m.cash).
		Msg("position exit")

	tradeCopy := *trade
	m.emit(Event{Type: evType, Position: *pos, Trade: &tradeCopy})

	if err := m.tradeStore.Insert(ctx, trade); err != nil {
		return trade, fmt.Errorf("persist trade: %w", err)
	}
	if err := m.persistPosition(ctx, pos); err != nil {
		return trade, err
	}
	if err := m.saveAccount(ctx); err != nil {
		return trade, err
	}
	return trade, nil
}

// ManualClose sells the whole remaining position at the current market price.
func (m *Manager) ManualClose(ctx context.Context, id string) (*domain.Trade, error) {
	pos, err := m.Position(id)
	if err != nil {
		return nil, err
	}
	if !pos.IsOpen() {
		return nil, ErrPositionClosed
	}
	if m.prices == nil {
		return nil, errors.New("no price source")
	}
	price, err := m.prices.Price(ctx, pos.TokenAddress)
	if err != nil {
		return nil, fmt.Errorf("price %s: %w", pos.TokenAddress, err)
	}
	return m.Close(ctx, id, domain.ExitManual, price)
}

// Position returns a copy of the position.
func (m *Manager) Position(id string) (*domain.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[id]
	if !ok {
		return nil, ErrPositionNotFound
	}
	out := *pos
	return &out, nil
}

// OpenPositions returns copies of the open positions ordered by entry time.
func (m *Manager) OpenPositions() []*domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Position, 0, len(m.openByToken))
	for _, id := range m.openByToken {
		p := *m.positions[id]
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryTime != out[j].EntryTime {
			return out[i].EntryTime < out[j].EntryTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Reset discards every position and trade and restores the initial balance.
// Nothing is sold.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions = make(map[string]*domain.Position)
	m.openByToken = make(map[string]string)
	m.cash = m.cfg.InitialBalanceUSD

	if err := m.positionStore.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	if err := m.tradeStore.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear trades: %w", err)
	}
	if err := m.saveAccount(ctx); err != nil {
		return err
	}
	m.log.Info().Float64("cash", m.cash).Msg("session reset")
	return nil
}

// openPosition returns the live position or an error. Caller holds m.mu.
func (m *Manager) openPosition(id string) (*domain.Position, error) {
	pos, ok := m.positions[id]
	if !ok {
		return nil, ErrPositionNotFound
	}
	if !pos.IsOpen() {
		return nil, ErrPositionClosed
	}
	return pos, nil
}

func (m *Manager) persistPosition(ctx context.Context, pos *domain.Position) error {
	p := *pos
	if err := m.positionStore.Upsert(ctx, &p); err != nil {
		m.log.Error().Err(err).Str("position", pos.ID).Msg("persist position failed")
		return fmt.Errorf("persist position %s: %w", pos.ID, err)
	}
	return nil
}

func (m *Manager) saveAccount(ctx context.Context) error {
	acct := &domain.Account{
		InitialBalanceUSD: m.cfg.InitialBalanceUSD,
		CashBalanceUSD:    m.cash,
		UpdatedAt:         m.now().UnixMilli(),
	}
	if err := m.accountStore.Save(ctx, acct); err != nil {
		m.log.Error().Err(err).Msg("persist account failed")
		return fmt.Errorf("persist account: %w", err)
	}
	return nil
}
