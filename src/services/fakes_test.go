package services_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/services"
	"portfolio/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, dd int) time.Time {
	return time.Date(year, month, dd, 0, 0, 0, 0, time.UTC)
}

// memStore is an in-memory stand-in for the relational store. Writes made through a fakeTx are
// undone when that transaction rolls back.
type memStore struct {
	mu           sync.Mutex
	portfolios   map[string]models.Portfolio
	lots         map[int64]models.Lot
	nextLotID    int64
	transactions []models.Transaction
	performances map[string]models.MonthlyPerformance
	nextPerfID   int64
	lockedKeys   []string
	rowLocks     *utils.KeyedMutex

	failUpdateValuation error
	failPerformance     map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		portfolios:      map[string]models.Portfolio{},
		lots:            map[int64]models.Lot{},
		performances:    map[string]models.MonthlyPerformance{},
		failPerformance: map[string]error{},
		rowLocks:        utils.NewKeyedMutex(),
	}
}

// record registers an undo step on tx. Callers hold s.mu.
func (s *memStore) record(tx pgx.Tx, undo func()) {
	if ft, ok := tx.(*fakeTx); ok {
		ft.undo = append(ft.undo, undo)
	}
}

func (s *memStore) lotsFor(portfolioID string) []models.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var lots []models.Lot
	for _, l := range s.lots {
		if l.PortfolioID == portfolioID {
			lots = append(lots, l)
		}
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].ID < lots[j].ID })
	return lots
}

func (s *memStore) portfolio(id string) models.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portfolios[id]
}

func (s *memStore) transactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

type fakeTx struct {
	pgx.Tx
	store   *memStore
	undo    []func()
	release []func()
	done    bool
}

func (t *fakeTx) releaseLocks() {
	for _, unlock := range t.release {
		unlock()
	}
	t.release = nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.undo = nil
	t.releaseLocks()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.mu.Unlock()
	t.releaseLocks()
	return nil
}

type fakeDB struct {
	store *memStore
	began atomic.Int32
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.began.Add(1)
	return &fakeTx{store: db.store}, nil
}

type fakePortfolioRepo struct{ s *memStore }

func (r *fakePortfolioRepo) Create(ctx context.Context, p *models.Portfolio, tx pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.portfolios[p.ID]; ok {
		return fmt.Errorf("duplicate portfolio %s", p.ID)
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.s.portfolios[p.ID] = *p
	id := p.ID
	r.s.record(tx, func() { delete(r.s.portfolios, id) })
	return nil
}

func (r *fakePortfolioRepo) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.portfolios[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

// GetByIDForUpdate holds a row lock on the portfolio until tx ends.
func (r *fakePortfolioRepo) GetByIDForUpdate(ctx context.Context, id string, tx pgx.Tx) (*models.Portfolio, error) {
	if ft, ok := tx.(*fakeTx); ok {
		ft.release = append(ft.release, r.s.rowLocks.Lock(id))
	}
	return r.GetByID(ctx, id)
}

func (r *fakePortfolioRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Portfolio, error) {
	all, _ := r.ListAll(ctx)
	var owned []models.Portfolio
	for _, p := range all {
		if p.OwnerID == ownerID {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

func (r *fakePortfolioRepo) ListAll(ctx context.Context) ([]models.Portfolio, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.Portfolio
	for _, p := range r.s.portfolios {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *fakePortfolioRepo) UpdateValuation(ctx context.Context, p *models.Portfolio, tx pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failUpdateValuation != nil {
		return r.s.failUpdateValuation
	}
	prev, ok := r.s.portfolios[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	next := prev
	next.CurrentValue = p.CurrentValue
	next.CapitalGain = p.CapitalGain
	next.Performance = p.Performance
	next.UpdatedAt = time.Now()
	r.s.portfolios[p.ID] = next
	r.s.record(tx, func() { r.s.portfolios[prev.ID] = prev })
	return nil
}

func (r *fakePortfolioRepo) Delete(ctx context.Context, id string, tx pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.portfolios[id]
	if !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.portfolios, id)
	for lotID, l := range r.s.lots {
		if l.PortfolioID == id {
			delete(r.s.lots, lotID)
		}
	}
	kept := r.s.transactions[:0]
	for _, t := range r.s.transactions {
		if t.PortfolioID != id {
			kept = append(kept, t)
		}
	}
	r.s.transactions = kept
	for key, mp := range r.s.performances {
		if mp.PortfolioID == id {
			delete(r.s.performances, key)
		}
	}
	r.s.record(tx, func() { r.s.portfolios[id] = prev })
	return nil
}

type fakeLotRepo struct{ s *memStore }

func (r *fakeLotRepo) LockKey(ctx context.Context, portfolioID, symbol string, tx pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lockedKeys = append(r.s.lockedKeys, portfolioID+"|"+symbol)
	return nil
}

func (r *fakeLotRepo) ListByPortfolioAndSymbol(ctx context.Context, portfolioID, symbol string, tx pgx.Tx) ([]models.Lot, error) {
	lots, _ := r.ListByPortfolio(ctx, portfolioID, tx)
	var matching []models.Lot
	for _, l := range lots {
		if l.Symbol == symbol {
			matching = append(matching, l)
		}
	}
	return matching, nil
}

func (r *fakeLotRepo) ListByPortfolio(ctx context.Context, portfolioID string, tx pgx.Tx) ([]models.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var lots []models.Lot
	for _, l := range r.s.lots {
		if l.PortfolioID == portfolioID {
			lots = append(lots, l)
		}
	}
	sort.Slice(lots, func(i, j int) bool {
		if lots[i].Symbol != lots[j].Symbol {
			return lots[i].Symbol < lots[j].Symbol
		}
		if !lots[i].PurchaseDate.Equal(lots[j].PurchaseDate) {
			return lots[i].PurchaseDate.Before(lots[j].PurchaseDate)
		}
		return lots[i].ID < lots[j].ID
	})
	return lots, nil
}

func (r *fakeLotRepo) Upsert(ctx context.Context, l *models.Lot, tx pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.Quantity <= 0 {
		return fmt.Errorf("lot quantity must be positive, got %d", l.Quantity)
	}
	if l.ID == 0 {
		for _, existing := range r.s.lots {
			if existing.PortfolioID == l.PortfolioID && existing.Symbol == l.Symbol &&
				existing.PurchasePrice.Equal(l.PurchasePrice) && existing.PurchaseDate.Equal(l.PurchaseDate) {
				return errors.New("duplicate lot identity")
			}
		}
		r.s.nextLotID++
		l.ID = r.s.nextLotID
		l.CreatedAt = time.Now()
		l.UpdatedAt = l.CreatedAt
		r.s.lots[l.ID] = *l
		id := l.ID
		r.s.record(tx, func() { delete(r.s.lots, id) })
		return nil
	}

	prev, ok := r.s.lots[l.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	next := prev
	next.Quantity = l.Quantity
	next.CurrentPrice = l.CurrentPrice
	next.CapitalGain = l.CapitalGain
	next.Performance = l.Performance
	next.UpdatedAt = time.Now()
	r.s.lots[l.ID] = next
	r.s.record(tx, func() { r.s.lots[prev.ID] = prev })
	return nil
}

func (r *fakeLotRepo) Delete(ctx context.Context, id int64, tx pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.lots[id]
	if !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.lots, id)
	r.s.record(tx, func() { r.s.lots[id] = prev })
	return nil
}

func (r *fakeLotRepo) ListDistinctSymbols(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	var symbols []string
	for _, l := range r.s.lots {
		if !seen[l.Symbol] {
			seen[l.Symbol] = true
			symbols = append(symbols, l.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (r *fakeLotRepo) ListPortfolioIDsBySymbol(ctx context.Context, symbol string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, l := range r.s.lots {
		if l.Symbol == symbol && !seen[l.PortfolioID] {
			seen[l.PortfolioID] = true
			ids = append(ids, l.PortfolioID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeTransactionRepo struct{ s *memStore }

func (r *fakeTransactionRepo) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Transaction
	for _, t := range r.s.transactions {
		if t.PortfolioID == portfolioID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) Create(ctx context.Context, t *models.Transaction, tx pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.CreatedAt = time.Now()
	r.s.transactions = append(r.s.transactions, *t)
	n := len(r.s.transactions) - 1
	r.s.record(tx, func() { r.s.transactions = r.s.transactions[:n] })
	return nil
}

type fakePerformanceRepo struct{ s *memStore }

func periodKey(mp *models.MonthlyPerformance) string {
	return fmt.Sprintf("%s|%d|%d", mp.PortfolioID, mp.Year, mp.Month)
}

func (r *fakePerformanceRepo) Create(ctx context.Context, mp *models.MonthlyPerformance, tx pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := periodKey(mp)
	if _, ok := r.s.performances[key]; ok {
		return nil
	}
	r.s.nextPerfID++
	mp.ID = r.s.nextPerfID
	r.s.performances[key] = *mp
	r.s.record(tx, func() { delete(r.s.performances, key) })
	return nil
}

func (r *fakePerformanceRepo) Upsert(ctx context.Context, mp *models.MonthlyPerformance, tx pgx.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failPerformance[mp.PortfolioID]; err != nil {
		return err
	}
	key := periodKey(mp)
	if existing, ok := r.s.performances[key]; ok {
		mp.ID = existing.ID
	} else {
		r.s.nextPerfID++
		mp.ID = r.s.nextPerfID
	}
	mp.UpdatedAt = time.Now()
	r.s.performances[key] = *mp
	return nil
}

func (r *fakePerformanceRepo) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.MonthlyPerformance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var history []models.MonthlyPerformance
	for _, mp := range r.s.performances {
		if mp.PortfolioID == portfolioID {
			history = append(history, mp)
		}
	}
	sort.Slice(history, func(i, j int) bool {
		if history[i].Year != history[j].Year {
			return history[i].Year < history[j].Year
		}
		return history[i].Month < history[j].Month
	})
	return history, nil
}

// fakeFetcher serves fixed prices; symbols listed in failing return their error.
type fakeFetcher struct {
	mu      sync.Mutex
	prices  map[string]decimal.Decimal
	failing map[string]error
	calls   atomic.Int32
	block   chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{prices: map[string]decimal.Decimal{}, failing: map[string]error{}}
}

func (f *fakeFetcher) set(symbol string, price decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
	delete(f.failing, symbol)
}

func (f *fakeFetcher) fail(symbol string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[symbol] = err
}

func (f *fakeFetcher) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing[symbol]; err != nil {
		return decimal.Zero, err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no quote for %s", symbol)
	}
	return p, nil
}

const owner = "user-1"

type testEnv struct {
	store       *memStore
	db          *fakeDB
	fetcher     *fakeFetcher
	cache       *services.PriceCache
	locks       *utils.KeyedMutex
	ledger      *services.Ledger
	aggregator  *services.Aggregator
	processor   *services.TransactionService
	portfolios  *services.PortfolioService
	refresher   *services.PriceRefreshService
	performance *services.PerformanceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	db := &fakeDB{store: store}
	portfolioRepo := &fakePortfolioRepo{s: store}
	lotRepo := &fakeLotRepo{s: store}
	transactionRepo := &fakeTransactionRepo{s: store}
	performanceRepo := &fakePerformanceRepo{s: store}

	fetcher := newFakeFetcher()
	cache := services.NewPriceCache(nil, fetcher)
	locks := utils.NewKeyedMutex()
	ledger := services.NewLedger(lotRepo, cache, time.Second)
	aggregator := services.NewAggregator(portfolioRepo, lotRepo)

	return &testEnv{
		store:       store,
		db:          db,
		fetcher:     fetcher,
		cache:       cache,
		locks:       locks,
		ledger:      ledger,
		aggregator:  aggregator,
		processor:   services.NewTransactionService(db, portfolioRepo, transactionRepo, ledger, aggregator, locks),
		portfolios:  services.NewPortfolioService(db, portfolioRepo, lotRepo, performanceRepo),
		refresher:   services.NewPriceRefreshService(db, lotRepo, cache, ledger, aggregator, locks, 2, time.Second),
		performance: services.NewPerformanceService(portfolioRepo, performanceRepo),
	}
}

func (e *testEnv) newPortfolio(t *testing.T, name string) string {
	t.Helper()
	p, err := e.portfolios.Create(context.Background(), owner, name)
	require.NoError(t, err)
	return p.ID
}

func (e *testEnv) trade(t *testing.T, portfolioID string, kind models.TransactionType, symbol string, qty int64, price string, date time.Time) *services.ProcessResult {
	t.Helper()
	res, err := e.processor.Process(context.Background(), owner, services.TransactionRequest{
		PortfolioID:     portfolioID,
		Symbol:          symbol,
		Quantity:        qty,
		TransactionType: kind,
		Date:            date,
		Price:           d(price),
		Currency:        "USD",
	})
	require.NoError(t, err)
	return res
}
