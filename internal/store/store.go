// Package store defines the persistence contract used by the services.
// sqlstore implements it on gorm, mongostore on the MongoDB driver
package store

import (
	"context"
	"errors"

	"asso_funds/internal/domain"
)

// ErrDuplicate is returned when a unique key (username) is already taken
var ErrDuplicate = errors.New("duplicate key")

// TreasurerFilter selects income transactions by treasurer decision
type TreasurerFilter int

const (
	TreasurerAny       TreasurerFilter = iota
	TreasurerPending                   // neither validated nor rejected
	TreasurerValidated                 // validated, regardless of a legacy rejection
	TreasurerAccepted                  // validated and not rejected
)

// ExpenseFilter selects expense transactions by combined approval
type ExpenseFilter int

const (
	ExpenseAny ExpenseFilter = iota
	ExpensePending
	ExpenseApproved
)

// Filter is the query accepted by FindTransactions. Zero fields do not filter.
// Results are always sorted by date, newest first
type Filter struct {
	Type           domain.Type
	InitiatedBy    string
	Treasurer      TreasurerFilter
	Expense        ExpenseFilter
	Amount         *float64
	ReasonContains string // case-insensitive literal substring
	DateContains   string // literal substring of the UTC date rendered as DateLayout
}

// DateLayout is the textual rendering of a transaction date matched by Filter.DateContains
const DateLayout = "2006-01-02T15:04:05"

// IncomeDecision is the treasurer field written by DecideIncome
type IncomeDecision int

const (
	DecisionValidate IncomeDecision = iota
	DecisionReject
)

// Page selects a window of an ordered listing
type Page struct {
	Offset int
	Limit  int
}

// Users persists user records
type Users interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UserByID(ctx context.Context, id string) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	// ListUsers returns one page of users ordered by username, and the total count
	ListUsers(ctx context.Context, p Page) ([]domain.User, int64, error)
}

// Transactions persists transaction records
type Transactions interface {
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	TransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	// DecideIncome writes the treasurer field only if the transaction is an income with
	// both treasurer fields unset. It reports whether the write happened
	DecideIncome(ctx context.Context, id string, decision IncomeDecision, treasurerID string) (bool, error)
	// ApproveExpense sets the flag of role only if the transaction is an expense with
	// that flag still false. It reports whether the write happened
	ApproveExpense(ctx context.Context, id string, role domain.Role) (bool, error)
	FindTransactions(ctx context.Context, f Filter) ([]domain.Transaction, error)
	// Leaderboard sums treasurer-validated income per initiator holding the member role
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// Store is the full persistence backend
type Store interface {
	Users
	Transactions
	Close() error
}
