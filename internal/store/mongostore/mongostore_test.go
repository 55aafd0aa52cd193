package mongostore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"asso_funds/internal/domain"
	"asso_funds/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFilterDocument(t *testing.T) {
	amount := 12.5
	q := filterDocument(store.Filter{
		Type:           domain.TypeIncome,
		Treasurer:      store.TreasurerAccepted,
		Amount:         &amount,
		ReasonContains: "a.b",
		DateContains:   "2024-03",
	})
	assert.Equal(t, domain.TypeIncome, q["type"])
	assert.Equal(t, bson.M{"$ne": nil}, q["validatedByTreasurer"])
	assert.Nil(t, q["rejectedByTreasurer"])
	assert.Contains(t, q, "rejectedByTreasurer")
	assert.Equal(t, 12.5, q["amount"])
	assert.Equal(t, bson.M{"$regex": `a\.b`, "$options": "i"}, q["reason"])
	assert.Contains(t, q, "$expr")

	pending := filterDocument(store.Filter{Type: domain.TypeExpense, Expense: store.ExpensePending})
	assert.Contains(t, pending, "$or")
	approved := filterDocument(store.Filter{Expense: store.ExpenseApproved})
	assert.Equal(t, true, approved["validatedByPresident"])
	assert.Equal(t, true, approved["validatedByController"])
	assert.Empty(t, filterDocument(store.Filter{}))
}

// openTestStore connects to MONGO_TEST_URI in a throwaway database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	name := "asso_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	st, err := Open(ctx, uri, name)
	require.NoError(t, err)
	require.NoError(t, st.EnsureIndexes(ctx))
	t.Cleanup(func() {
		_ = st.users.Database().Drop(context.Background())
		_ = st.Close()
	})
	return st
}

func TestMongoUsers(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	u := domain.NewUser("alice", "hash", domain.RoleMember)
	require.NoError(t, st.CreateUser(ctx, u))
	assert.ErrorIs(t, st.CreateUser(ctx, domain.NewUser("alice", "x", domain.RoleMember)), store.ErrDuplicate)

	got, err := st.UserByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, st.UpdateRole(ctx, u.ID, domain.RoleTreasurer))
	got, err = st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTreasurer, got.Role)
	assert.ErrorIs(t, st.UpdatePassword(ctx, "ghost", "x"), domain.ErrNotFound)
	_, err = st.UserByID(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, st.CreateUser(ctx, domain.NewUser("bob", "hash", domain.RoleMember)))
	require.NoError(t, st.CreateUser(ctx, domain.NewUser("carol", "hash", domain.RoleMember)))
	page, total, err := st.ListUsers(ctx, store.Page{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "bob", page[0].Username)
}

func TestMongoApprovalsAndQueries(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	member := domain.NewUser("member", "hash", domain.RoleMember)
	treso := domain.NewUser("treso", "hash", domain.RoleTreasurer)
	require.NoError(t, st.CreateUser(ctx, member))
	require.NoError(t, st.CreateUser(ctx, treso))

	income, err := domain.NewIncome(40, "Cotisation", "", domain.SubtypeDues, member.ID)
	require.NoError(t, err)
	require.NoError(t, st.CreateTransaction(ctx, income))

	ok, err := st.DecideIncome(ctx, income.ID, store.DecisionValidate, treso.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.DecideIncome(ctx, income.ID, store.DecisionReject, treso.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	expense, err := domain.NewExpense(10, "paper", "Shop", treso.ID)
	require.NoError(t, err)
	require.NoError(t, st.CreateTransaction(ctx, expense))
	ok, err = st.ApproveExpense(ctx, expense.ID, domain.RolePresident)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.ApproveExpense(ctx, expense.ID, domain.RolePresident)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := st.FindTransactions(ctx, store.Filter{Type: domain.TypeExpense, Expense: store.ExpensePending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, expense.ID, pending[0].ID)

	accepted, err := st.FindTransactions(ctx, store.Filter{Type: domain.TypeIncome, Treasurer: store.TreasurerAccepted, ReasonContains: "cotis"})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, treso.ID, *accepted[0].ValidatedByTreasurer)

	byDate, err := st.FindTransactions(ctx, store.Filter{DateContains: income.Date.Format(store.DateLayout)[:10]})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	rows, err := st.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.LeaderboardEntry{{UserID: member.ID, Username: "member", TotalFunds: 40}}, rows)
}
