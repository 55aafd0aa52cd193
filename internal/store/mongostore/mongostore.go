// Package mongostore implements store.Store on MongoDB. Documents live in the
// "users" and "transactions" collections with UUID string ids and camelCase fields
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"asso_funds/internal/domain"
	"asso_funds/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection        = "users"
	transactionsCollection = "transactions"
)

// Store wraps a MongoDB database handle
type Store struct {
	client *mongo.Client     // Connection, closed by Close
	users  *mongo.Collection // users collection
	txs    *mongo.Collection // transactions collection
}

var _ store.Store = (*Store)(nil)

// Open connects to uri and pings the server
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	db := client.Database(database)
	return &Store{
		client: client,
		users:  db.Collection(usersCollection),
		txs:    db.Collection(transactionsCollection),
	}, nil
}

// Close disconnects the client
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// EnsureIndexes creates the unique username index and the listing indexes
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	if _, err := s.txs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "initiatedBy", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create transactions indexes: %w", err)
	}
	return nil
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", store.ErrDuplicate, what)
	}
	return err
}

// CreateUser inserts a user; a taken username yields store.ErrDuplicate
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.users.InsertOne(ctx, u)
	return translate(err, "username already exists")
}

// UserByID loads a user by id
func (s *Store) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

// UserByUsername loads a user by its lowercase username
func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"username": strings.ToLower(username)})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var u domain.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err, "user not found")
	}
	return &u, nil
}

// UsersByIDs loads the users with the given ids; unknown ids are absent from the map
func (s *Store) UsersByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// ListUsers returns one page of users ordered by username, and the total count
func (s *Store) ListUsers(ctx context.Context, p store.Page) ([]domain.User, int64, error) {
	total, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(p.Limit))
	cur, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	users := []domain.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdatePassword replaces the password hash of a user
func (s *Store) UpdatePassword(ctx context.Context, id, hash string) error {
	return s.setUserField(ctx, id, "password", hash)
}

// UpdateRole replaces the role of a user
func (s *Store) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	return s.setUserField(ctx, id, "role", role)
}

func (s *Store) setUserField(ctx context.Context, id, field string, value any) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{field: value}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	return nil
}

// CreateTransaction inserts a transaction
func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	_, err := s.txs.InsertOne(ctx, t)
	return err
}

// TransactionByID loads a transaction by id
func (s *Store) TransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := s.txs.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, translate(err, "transaction not found")
	}
	return &t, nil
}

// DecideIncome sets one treasurer field with a single conditional UpdateOne
func (s *Store) DecideIncome(ctx context.Context, id string, decision store.IncomeDecision, treasurerID string) (bool, error) {
	field := "validatedByTreasurer"
	if decision == store.DecisionReject {
		field = "rejectedByTreasurer"
	}
	res, err := s.txs.UpdateOne(ctx, bson.M{
		"_id":                  id,
		"type":                 domain.TypeIncome,
		"validatedByTreasurer": nil,
		"rejectedByTreasurer":  nil,
	}, bson.M{"$set": bson.M{field: treasurerID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ApproveExpense flips the approval flag of role if it is still false
func (s *Store) ApproveExpense(ctx context.Context, id string, role domain.Role) (bool, error) {
	var field string
	switch role {
	case domain.RolePresident:
		field = "validatedByPresident"
	case domain.RoleController:
		field = "validatedByController"
	default:
		return false, fmt.Errorf("%w: role %q cannot validate expenses", domain.ErrForbidden, role)
	}
	res, err := s.txs.UpdateOne(ctx, bson.M{
		"_id":  id,
		"type": domain.TypeExpense,
		field:  bson.M{"$ne": true},
	}, bson.M{"$set": bson.M{field: true}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// FindTransactions runs a filtered listing, newest first
func (s *Store) FindTransactions(ctx context.Context, f store.Filter) ([]domain.Transaction, error) {
	cur, err := s.txs.Find(ctx, filterDocument(f), options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []domain.Transaction{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func filterDocument(f store.Filter) bson.M {
	q := bson.M{}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.InitiatedBy != "" {
		q["initiatedBy"] = f.InitiatedBy
	}
	switch f.Treasurer {
	case store.TreasurerPending:
		q["validatedByTreasurer"] = nil
		q["rejectedByTreasurer"] = nil
	case store.TreasurerValidated:
		q["validatedByTreasurer"] = bson.M{"$ne": nil}
	case store.TreasurerAccepted:
		q["validatedByTreasurer"] = bson.M{"$ne": nil}
		q["rejectedByTreasurer"] = nil
	}
	switch f.Expense {
	case store.ExpensePending:
		q["$or"] = bson.A{
			bson.M{"validatedByPresident": bson.M{"$ne": true}},
			bson.M{"validatedByController": bson.M{"$ne": true}},
		}
	case store.ExpenseApproved:
		q["validatedByPresident"] = true
		q["validatedByController"] = true
	}
	if f.Amount != nil {
		q["amount"] = *f.Amount
	}
	if f.ReasonContains != "" {
		q["reason"] = bson.M{"$regex": regexp.QuoteMeta(f.ReasonContains), "$options": "i"}
	}
	if f.DateContains != "" {
		q["$expr"] = bson.M{"$regexMatch": bson.M{
			"input": bson.M{"$dateToString": bson.M{"format": "%Y-%m-%dT%H:%M:%S", "date": "$date", "timezone": "UTC"}},
			"regex": regexp.QuoteMeta(f.DateContains),
		}}
	}
	return q
}

// Leaderboard groups validated income per member initiator, largest total first
func (s *Store) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"type": domain.TypeIncome, "validatedByTreasurer": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": "$initiatedBy", "totalFunds": bson.M{"$sum": "$amount"}}}},
		{{Key: "$lookup", Value: bson.M{"from": usersCollection, "localField": "_id", "foreignField": "_id", "as": "user"}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$match", Value: bson.M{"user.role": domain.RoleMember}}},
		{{Key: "$project", Value: bson.M{"_id": 1, "totalFunds": 1, "username": "$user.username"}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalFunds", Value: -1}, {Key: "username", Value: 1}}}},
	}
	cur, err := s.txs.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := []domain.LeaderboardEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
