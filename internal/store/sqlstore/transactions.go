package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"asso_funds/internal/domain"
	"asso_funds/internal/store"

	"gorm.io/gorm"
)

// CreateTransaction inserts a transaction
func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	return s.db.WithContext(ctx).Create(t).Error
}

// TransactionByID loads a transaction by id
func (s *Store) TransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translate(err, "transaction not found")
	}
	return &t, nil
}

// DecideIncome writes one treasurer field with a single conditional UPDATE, so a
// concurrent validate and reject cannot both succeed
func (s *Store) DecideIncome(ctx context.Context, id string, decision store.IncomeDecision, treasurerID string) (bool, error) {
	column := "validated_by_treasurer"
	if decision == store.DecisionReject {
		column = "rejected_by_treasurer"
	}
	res := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ? AND type = ? AND validated_by_treasurer IS NULL AND rejected_by_treasurer IS NULL", id, domain.TypeIncome).
		Update(column, treasurerID)
	return res.RowsAffected == 1, res.Error
}

// ApproveExpense flips the approval flag of role if it is still false
func (s *Store) ApproveExpense(ctx context.Context, id string, role domain.Role) (bool, error) {
	var column string
	switch role {
	case domain.RolePresident:
		column = "validated_by_president"
	case domain.RoleController:
		column = "validated_by_controller"
	default:
		return false, fmt.Errorf("%w: role %q cannot validate expenses", domain.ErrForbidden, role)
	}
	res := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ? AND type = ? AND "+column+" = ?", id, domain.TypeExpense, false).
		Update(column, true)
	return res.RowsAffected == 1, res.Error
}

// FindTransactions runs a filtered listing, newest first
func (s *Store) FindTransactions(ctx context.Context, f store.Filter) ([]domain.Transaction, error) {
	q := s.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.InitiatedBy != "" {
		q = q.Where("initiated_by = ?", f.InitiatedBy)
	}
	switch f.Treasurer {
	case store.TreasurerPending:
		q = q.Where("validated_by_treasurer IS NULL AND rejected_by_treasurer IS NULL")
	case store.TreasurerValidated:
		q = q.Where("validated_by_treasurer IS NOT NULL")
	case store.TreasurerAccepted:
		q = q.Where("validated_by_treasurer IS NOT NULL AND rejected_by_treasurer IS NULL")
	}
	switch f.Expense {
	case store.ExpensePending:
		q = q.Where("(validated_by_president = ? OR validated_by_controller = ?)", false, false)
	case store.ExpenseApproved:
		q = q.Where("validated_by_president = ? AND validated_by_controller = ?", true, true)
	}
	if f.Amount != nil {
		q = q.Where("amount = ?", *f.Amount)
	}
	if f.ReasonContains != "" {
		q = q.Where("LOWER(reason) LIKE ? ESCAPE '!'", likePattern(strings.ToLower(f.ReasonContains)))
	}
	if f.DateContains != "" {
		q = q.Where(dateText(s.db)+" LIKE ? ESCAPE '!'", likePattern(f.DateContains))
	}
	out := []domain.Transaction{}
	if err := q.Order("transactions.date DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// dateText renders the date column as store.DateLayout in UTC for the current dialect
func dateText(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "DATE_FORMAT(transactions.date, '%Y-%m-%dT%H:%i:%s')"
	case "postgres":
		return `to_char(transactions.date AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS')`
	default:
		return "strftime('%Y-%m-%dT%H:%M:%S', transactions.date)"
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Leaderboard groups validated income per member initiator, largest total first
func (s *Store) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows := []domain.LeaderboardEntry{}
	err := s.db.WithContext(ctx).Table("transactions AS t").
		Select("t.initiated_by AS user_id, u.username AS username, SUM(t.amount) AS total_funds").
		Joins("JOIN users u ON u.id = t.initiated_by").
		Where("t.type = ? AND t.validated_by_treasurer IS NOT NULL AND u.role = ?", domain.TypeIncome, domain.RoleMember).
		Group("t.initiated_by, u.username").
		Order("total_funds DESC, u.username ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
