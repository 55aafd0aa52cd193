// Package service holds the association's use cases: the approval workflow,
// the reporting queries and account management
package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"asso_funds/internal/auth"
	"asso_funds/internal/domain"
	"asso_funds/internal/store"
	"asso_funds/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache keys. Every cached listing is recorded in cacheIndex and dropped on any write
const (
	cacheIndex     = "tx:cache:index"
	leaderboardKey = "tx:leaderboard"
	listKeyPrefix  = "tx:list:"
)

// Transactions runs the approval workflow and the reporting queries
type Transactions struct {
	store    store.Store   // Users and transactions
	rdb      *redis.Client // Listing cache, may be nil
	cacheTTL time.Duration // Lifetime of cached listings
}

// NewTransactions builds the transaction service. rdb may be nil
func NewTransactions(st store.Store, rdb *redis.Client, cacheTTL time.Duration) *Transactions {
	return &Transactions{store: st, rdb: rdb, cacheTTL: cacheTTL}
}

// IncomeInput describes an income to record. An empty InitiatorID means the caller
type IncomeInput struct {
	Amount      float64
	Reason      string
	Donor       string
	Subtype     domain.Subtype
	InitiatorID string
}

// CreateIncome records a submitted income. Any authenticated user may record their own;
// only a treasurer may record one on behalf of another user
func (s *Transactions) CreateIncome(ctx context.Context, caller *domain.User, in IncomeInput) (*domain.Transaction, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	initiator := in.InitiatorID
	if initiator == "" {
		initiator = caller.ID
	}
	if initiator != caller.ID {
		if err := auth.RequireRole(caller, domain.RoleTreasurer); err != nil {
			return nil, fmt.Errorf("%w: only a treasurer may record income for another user", domain.ErrForbidden)
		}
		if _, err := s.store.UserByID(ctx, initiator); err != nil {
			return nil, err
		}
	}
	t, err := domain.NewIncome(in.Amount, in.Reason, in.Donor, in.Subtype, initiator)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logTransition(t, caller, "Income recorded")
	return t, nil
}

// CreateExpense records a submitted expense initiated by the calling treasurer
func (s *Transactions) CreateExpense(ctx context.Context, caller *domain.User, amount float64, reason, beneficiary string) (*domain.Transaction, error) {
	if err := auth.RequireRole(caller, domain.RoleTreasurer); err != nil {
		return nil, err
	}
	t, err := domain.NewExpense(amount, reason, beneficiary, caller.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logTransition(t, caller, "Expense recorded")
	return t, nil
}

// ApproveIncome records the caller's treasurer validation
func (s *Transactions) ApproveIncome(ctx context.Context, caller *domain.User, id string) (*domain.Transaction, error) {
	return s.decideIncome(ctx, caller, id, store.DecisionValidate)
}

// RejectIncome records the caller's treasurer rejection
func (s *Transactions) RejectIncome(ctx context.Context, caller *domain.User, id string) (*domain.Transaction, error) {
	return s.decideIncome(ctx, caller, id, store.DecisionReject)
}

func (s *Transactions) decideIncome(ctx context.Context, caller *domain.User, id string, decision store.IncomeDecision) (*domain.Transaction, error) {
	if err := auth.RequireRole(caller, domain.RoleTreasurer); err != nil {
		return nil, err
	}
	t, err := s.store.TransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply, msg := t.ApproveIncome, "Income validated"
	if decision == store.DecisionReject {
		apply, msg = t.RejectIncome, "Income rejected"
	}
	if err := apply(caller.ID); err != nil {
		return nil, err
	}
	ok, err := s.store.DecideIncome(ctx, id, decision, caller.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: transaction was decided by another treasurer", domain.ErrAlreadyDecided)
	}
	s.invalidate(ctx)
	s.logTransition(t, caller, msg)
	return t, nil
}

// ApproveExpense records the caller's president or controller approval
func (s *Transactions) ApproveExpense(ctx context.Context, caller *domain.User, id string) (*domain.Transaction, error) {
	if err := auth.RequireRole(caller, domain.RolePresident, domain.RoleController); err != nil {
		return nil, err
	}
	t, err := s.store.TransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.ApproveExpense(caller.Role); err != nil {
		return nil, err
	}
	ok, err := s.store.ApproveExpense(ctx, id, caller.Role)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: transaction was validated concurrently", domain.ErrAlreadyDecided)
	}
	// the other board member may have approved since we loaded t
	if fresh, err := s.store.TransactionByID(ctx, id); err == nil {
		t = fresh
	}
	s.invalidate(ctx)
	s.logTransition(t, caller, "Expense validated")
	return t, nil
}

func (s *Transactions) logTransition(t *domain.Transaction, caller *domain.User, msg string) {
	logrus.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"type":           t.Type,
		"amount":         t.Amount,
		"actor_id":       caller.ID,
		"actor_role":     caller.Role,
		"state":          t.State(),
	}).Info(msg)
}

func (s *Transactions) invalidate(ctx context.Context) {
	invalidateListings(ctx, s.rdb)
}

// invalidateListings drops every cached listing and the leaderboard
func invalidateListings(ctx context.Context, rdb *redis.Client) {
	if err := utils.InvalidateTracked(ctx, rdb, cacheIndex); err != nil {
		logrus.WithField("error", err.Error()).Warn("Cache invalidation failed")
	}
}

// ListPendingExpenses returns expenses still missing the president or controller approval
func (s *Transactions) ListPendingExpenses(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := s.store.FindTransactions(ctx, store.Filter{Type: domain.TypeExpense, Expense: store.ExpensePending})
	if err != nil {
		return nil, err
	}
	return txs, s.withInitiators(ctx, txs)
}

// ListPendingTreasurerIncome returns income no treasurer has decided yet
func (s *Transactions) ListPendingTreasurerIncome(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := s.store.FindTransactions(ctx, store.Filter{Type: domain.TypeIncome, Treasurer: store.TreasurerPending})
	if err != nil {
		return nil, err
	}
	return txs, s.withInitiators(ctx, txs)
}

// ListValidatedIncomeForUser returns the treasurer-validated income initiated by userID
func (s *Transactions) ListValidatedIncomeForUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	txs, err := s.store.FindTransactions(ctx, store.Filter{
		Type:        domain.TypeIncome,
		InitiatedBy: userID,
		Treasurer:   store.TreasurerValidated,
	})
	if err != nil {
		return nil, err
	}
	return txs, s.withTreasurers(ctx, txs)
}

// ListFilter is the public listing query. Zero fields do not filter
type ListFilter struct {
	Type   domain.Type
	Amount *float64
	Reason string
	Date   string
}

func (f ListFilter) cacheKey() string {
	amount := ""
	if f.Amount != nil {
		amount = strconv.FormatFloat(*f.Amount, 'g', -1, 64)
	}
	return listKeyPrefix + fmt.Sprintf("%s|%s|%q|%q", f.Type, amount, f.Reason, f.Date)
}

// ListTransactions returns the settled history: approved expenses and accepted income
func (s *Transactions) ListTransactions(ctx context.Context, f ListFilter) ([]domain.Transaction, error) {
	key := f.cacheKey()
	var cached []domain.Transaction
	if found, err := utils.GetCache(ctx, s.rdb, key, &cached); err == nil && found {
		return cached, nil
	}
	q := store.Filter{
		Type:           f.Type,
		Amount:         f.Amount,
		ReasonContains: f.Reason,
		DateContains:   f.Date,
	}
	switch f.Type {
	case domain.TypeExpense:
		q.Expense = store.ExpenseApproved
	case domain.TypeIncome:
		q.Treasurer = store.TreasurerAccepted
	}
	txs, err := s.store.FindTransactions(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.withInitiators(ctx, txs); err != nil {
		return nil, err
	}
	if err := utils.SetTrackedCache(ctx, s.rdb, cacheIndex, key, txs, s.cacheTTL); err != nil {
		logrus.WithField("error", err.Error()).Warn("Cache write failed")
	}
	return txs, nil
}

// Leaderboard ranks members by the total of their treasurer-validated income
func (s *Transactions) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var cached []domain.LeaderboardEntry
	if found, err := utils.GetCache(ctx, s.rdb, leaderboardKey, &cached); err == nil && found {
		return cached, nil
	}
	rows, err := s.store.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.LeaderboardEntry{}
	}
	if err := utils.SetTrackedCache(ctx, s.rdb, cacheIndex, leaderboardKey, rows, s.cacheTTL); err != nil {
		logrus.WithField("error", err.Error()).Warn("Cache write failed")
	}
	return rows, nil
}

func (s *Transactions) withInitiators(ctx context.Context, txs []domain.Transaction) error {
	ids := make([]string, 0, len(txs))
	for _, t := range txs {
		ids = append(ids, t.InitiatedBy)
	}
	users, err := s.store.UsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range txs {
		txs[i].InitiatorUsername = users[txs[i].InitiatedBy].Username
	}
	return nil
}

func (s *Transactions) withTreasurers(ctx context.Context, txs []domain.Transaction) error {
	ids := make([]string, 0, len(txs))
	for _, t := range txs {
		if t.ValidatedByTreasurer != nil {
			ids = append(ids, *t.ValidatedByTreasurer)
		}
	}
	users, err := s.store.UsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range txs {
		if v := txs[i].ValidatedByTreasurer; v != nil {
			txs[i].TreasurerUsername = users[*v].Username
		}
	}
	return nil
}
