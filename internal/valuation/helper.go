package valuation

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/stockval/internal/csvrows"
	"github.com/cleared-dev/stockval/internal/importer"
	"github.com/cleared-dev/stockval/internal/model"
	"github.com/cleared-dev/stockval/internal/pricelist"
	"github.com/cleared-dev/stockval/internal/reconcile"
	"github.com/cleared-dev/stockval/internal/runlog"
)

// PriceSource supplies the master price table a run values against.
type PriceSource interface {
	Current(ctx context.Context) (*pricelist.Table, error)
}

// AccountLookup resolves target accounts. Without one, any non-zero account
// ID is accepted.
type AccountLookup interface {
	Get(id int) (model.Account, bool)
}

// Recorder receives run log entries.
type Recorder interface {
	Record(e runlog.Entry) error
}

// Result is the outcome of one completed run.
type Result struct {
	RunID   string
	Report  model.Report
	Summary []string
	State   State // session right after this run's component was written
}

// Option configures a Helper.
type Option func(*Helper)

// WithAccounts restricts Open to inventory accounts known to lookup.
func WithAccounts(lookup AccountLookup) Option {
	return func(h *Helper) { h.accounts = lookup }
}

// WithRecorder sends helper events to r.
func WithRecorder(r Recorder) Option {
	return func(h *Helper) { h.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Helper) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithStrictCSV selects the quote-aware tokenizer for stock exports.
func WithStrictCSV(strict bool) Option {
	return func(h *Helper) { h.strict = strict }
}

// WithSummary sets currency and sample size for run summaries.
func WithSummary(opts SummaryOptions) Option {
	return func(h *Helper) { h.summary = opts }
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// Helper is the inventory helper session for one account at a time. Runs
// read and reconcile outside the lock; a newer run for a role cancels and
// discards the older one, and nothing started under a previous Open can
// write into the current session.
type Helper struct {
	prices   PriceSource
	parsers  *importer.Registry
	accounts AccountLookup
	recorder Recorder
	logger   *zap.Logger
	strict   bool
	summary  SummaryOptions
	now      func() time.Time

	mu      sync.Mutex
	state   State
	epoch   uint64
	nextGen uint64
	runs    map[model.Role]*inflight
}

// NewHelper creates an idle Helper. parsers must provide the "fba" and
// "warehouse" formats.
func NewHelper(prices PriceSource, parsers *importer.Registry, opts ...Option) *Helper {
	h := &Helper{
		prices:  prices,
		parsers: parsers,
		logger:  zap.NewNop(),
		now:     time.Now,
		state:   State{Phase: PhaseIdle},
		runs:    make(map[model.Role]*inflight),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open starts a fresh session for accountID. Both components reset to zero
// and every in-flight run is cancelled, even when the account is unchanged.
func (h *Helper) Open(accountID int) (State, error) {
	if accountID == 0 {
		return State{}, ErrNoAccount
	}
	if h.accounts != nil {
		acct, ok := h.accounts.Get(accountID)
		if !ok {
			return State{}, fmt.Errorf("account %d: %w", accountID, ErrNoAccount)
		}
		if !acct.IsInventory() {
			return State{}, fmt.Errorf("account %d (%s): %w", accountID, acct.Name, ErrNotInventoryAccount)
		}
	}

	h.mu.Lock()
	h.cancelRunsLocked()
	h.epoch++
	h.state = State{
		SessionID:      uuid.NewString(),
		AccountID:      accountID,
		Phase:          PhaseOpen,
		FBAValue:       decimal.Zero,
		WarehouseValue: decimal.Zero,
	}
	st := h.snapshotLocked()
	h.mu.Unlock()

	h.logger.Info("inventory helper opened",
		zap.String("session_id", st.SessionID),
		zap.Int("account_id", accountID))
	h.record(runlog.Entry{RunID: st.SessionID, AccountID: accountID, Event: runlog.EventOpen})
	return st, nil
}

// RunFBA values an FBA export and replaces the session's FBA component.
func (h *Helper) RunFBA(ctx context.Context, r io.Reader) (Result, error) {
	return h.run(ctx, model.RoleFBA, r)
}

// RunWarehouse values a warehouse export and replaces the session's
// warehouse component.
func (h *Helper) RunWarehouse(ctx context.Context, r io.Reader) (Result, error) {
	return h.run(ctx, model.RoleWarehouse, r)
}

func (h *Helper) run(ctx context.Context, role model.Role, r io.Reader) (Result, error) {
	if r == nil {
		return Result{}, ErrInputMissing
	}
	parser := h.parsers.Get(string(role))
	if parser == nil {
		return Result{}, fmt.Errorf("no parser for %s exports", role)
	}

	h.mu.Lock()
	if h.state.Phase != PhaseOpen {
		h.mu.Unlock()
		return Result{}, ErrNoSession
	}
	prev := h.runs[role]
	if prev != nil {
		prev.cancel()
	}
	h.nextGen++
	gen, epoch := h.nextGen, h.epoch
	acct, session := h.state.AccountID, h.state.SessionID
	runCtx, cancel := context.WithCancel(ctx)
	h.runs[role] = &inflight{gen: gen, cancel: cancel}
	h.mu.Unlock()
	defer cancel()

	if prev != nil {
		h.logger.Info("run superseded", zap.String("session_id", session), zap.String("role", string(role)))
		h.record(runlog.Entry{RunID: session, AccountID: acct, Event: runlog.EventSupersede, Role: string(role)})
	}

	runID := uuid.NewString()
	rep, err := h.reconcile(runCtx, role, parser, r)
	return h.finish(role, gen, epoch, runID, rep, err)
}

func (h *Helper) reconcile(ctx context.Context, role model.Role, parser importer.Parser, r io.Reader) (model.Report, error) {
	tbl, err := h.prices.Current(ctx)
	if err != nil {
		return model.Report{}, err
	}
	rows, err := csvrows.Read(ctx, r, h.strict)
	if err != nil {
		return model.Report{}, fmt.Errorf("reading %s export: %w", role, err)
	}
	stock, diag := parser.Parse(rows)
	rep := reconcile.Run(role, stock, tbl)
	rep.Diagnostics = diag
	return rep, nil
}

// finish publishes a run's outcome unless a newer run or a new session has
// taken its place.
func (h *Helper) finish(role model.Role, gen, epoch uint64, runID string, rep model.Report, err error) (Result, error) {
	h.mu.Lock()
	cur := h.runs[role]
	if h.epoch != epoch || cur == nil || cur.gen != gen {
		h.mu.Unlock()
		return Result{}, ErrSuperseded
	}
	delete(h.runs, role)
	acct, session := h.state.AccountID, h.state.SessionID

	if err != nil {
		h.mu.Unlock()
		h.logger.Warn("run failed", zap.String("role", string(role)), zap.Error(err))
		h.record(runlog.Entry{RunID: runID, AccountID: acct, Event: runlog.EventFail, Role: string(role), Details: err.Error()})
		return Result{}, err
	}

	summary := Summarize(rep, h.summary)
	*h.state.component(role) = rep.TotalValue
	if h.state.Summaries == nil {
		h.state.Summaries = make(map[model.Role][]string)
	}
	h.state.Summaries[role] = summary
	st := h.snapshotLocked()
	h.mu.Unlock()

	h.logger.Info("run completed",
		zap.String("session_id", session),
		zap.String("run_id", runID),
		zap.String("role", string(role)),
		zap.Int("matched", rep.MatchedCount),
		zap.Int("unmatched", len(rep.Unmatched)),
		zap.Int("skipped", rep.Diagnostics.SkippedTotal()),
		zap.Int("coerced", rep.Diagnostics.Coerced),
		zap.String("total", rep.TotalValue.String()))
	h.record(runlog.Entry{
		RunID:     runID,
		AccountID: acct,
		Event:     runlog.EventRun,
		Role:      string(role),
		Value:     rep.TotalValue.StringFixed(2),
		Details:   fmt.Sprintf("matched=%d unmatched=%d skipped=%d", rep.MatchedCount, len(rep.Unmatched), rep.Diagnostics.SkippedTotal()),
	})
	return Result{RunID: runID, Report: rep, Summary: summary, State: st}, nil
}

// State returns a snapshot of the session.
func (h *Helper) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Apply validates the combined total and ends the session, returning the
// applied state. Applied holds the value rounded to cents. On error the
// session stays open.
func (h *Helper) Apply() (State, error) {
	h.mu.Lock()
	if h.state.Phase != PhaseOpen {
		h.mu.Unlock()
		return State{}, ErrNoSession
	}
	v, err := ApplyValue(h.state.AccountID, h.state.Total())
	if err != nil {
		h.mu.Unlock()
		return State{}, err
	}
	h.cancelRunsLocked()
	h.epoch++
	h.state.Phase = PhaseApplied
	h.state.Applied = v
	st := h.snapshotLocked()
	h.mu.Unlock()

	h.logger.Info("inventory value applied",
		zap.String("session_id", st.SessionID),
		zap.Int("account_id", st.AccountID),
		zap.String("value", v.StringFixed(2)))
	h.record(runlog.Entry{RunID: st.SessionID, AccountID: st.AccountID, Event: runlog.EventApply, Value: v.StringFixed(2)})
	return st, nil
}

// Close ends the session without applying and resets both components.
func (h *Helper) Close() State {
	h.mu.Lock()
	h.cancelRunsLocked()
	h.epoch++
	prev := h.state
	h.state = State{Phase: PhaseClosed, FBAValue: decimal.Zero, WarehouseValue: decimal.Zero}
	st := h.snapshotLocked()
	h.mu.Unlock()

	if prev.Phase == PhaseOpen {
		h.logger.Info("inventory helper closed", zap.String("session_id", prev.SessionID))
		h.record(runlog.Entry{RunID: prev.SessionID, AccountID: prev.AccountID, Event: runlog.EventClose})
	}
	return st
}

func (h *Helper) cancelRunsLocked() {
	for role, in := range h.runs {
		in.cancel()
		delete(h.runs, role)
	}
}

func (h *Helper) snapshotLocked() State {
	st := h.state
	if h.state.Summaries != nil {
		st.Summaries = make(map[model.Role][]string, len(h.state.Summaries))
		for k, v := range h.state.Summaries {
			st.Summaries[k] = append([]string(nil), v...)
		}
	}
	return st
}

func (h *Helper) record(e runlog.Entry) {
	if h.recorder == nil {
		return
	}
	e.Timestamp = h.now()
	if err := h.recorder.Record(e); err != nil {
		h.logger.Warn("writing run log", zap.Error(err))
	}
}
