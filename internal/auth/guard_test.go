package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"asso_funds/internal/domain"
	"asso_funds/internal/store"
	"asso_funds/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type fakeUsers struct {
	byID  map[string]*domain.User
	reads int
}

var _ store.Users = (*fakeUsers)(nil)

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*domain.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) CreateUser(_ context.Context, u *domain.User) error {
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) UserByID(_ context.Context, id string) (*domain.User, error) {
	f.reads++
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
}

func (f *fakeUsers) UsersByIDs(_ context.Context, ids []string) (map[string]domain.User, error) {
	out := map[string]domain.User{}
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out[id] = *u
		}
	}
	return out, nil
}

func (f *fakeUsers) ListUsers(_ context.Context, p store.Page) ([]domain.User, int64, error) {
	out := []domain.User{}
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.byID[id].Password = hash
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, role domain.Role) error {
	f.byID[id].Role = role
	return nil
}

func bearer(t *testing.T, userID, key string, ttl time.Duration) string {
	t.Helper()
	token, err := utils.GenerateJWT(userID, key, ttl)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	token, err = BearerToken("bearer   abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	for _, h := range []string{"", "abc", "Basic abc", "Bearer ", "Bearer"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, h)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	alice := domain.NewUser("alice", "hash", domain.RoleMember)
	g := NewGuard(newFakeUsers(alice), secret, nil, time.Minute)

	u, err := g.Authenticate(ctx, bearer(t, alice.ID, secret, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)
	assert.Equal(t, domain.RoleMember, u.Role)
	assert.Empty(t, u.Password)

	failures := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token " + bearer(t, alice.ID, secret, time.Hour)[len("Bearer "):],
		"bad signature":  bearer(t, alice.ID, "other-secret", time.Hour),
		"expired":        bearer(t, alice.ID, secret, -time.Minute),
		"unknown user":   bearer(t, "ghost", secret, time.Hour),
		"garbage":        "Bearer not.a.jwt",
	}
	for name, header := range failures {
		_, err := g.Authenticate(ctx, header)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, name)
	}
}

func TestAuthenticateRejectsUnsignedTokens(t *testing.T) {
	alice := domain.NewUser("alice", "hash", domain.RoleMember)
	g := NewGuard(newFakeUsers(alice), secret, nil, time.Minute)

	claims := utils.Claims{UserID: alice.ID, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = g.Authenticate(context.Background(), "Bearer "+unsigned)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticateByPathUser(t *testing.T) {
	ctx := context.Background()
	bob := domain.NewUser("bob", "hash", domain.RoleTreasurer)
	g := NewGuard(newFakeUsers(bob), secret, nil, time.Minute)

	u, err := g.AuthenticateByPathUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.Empty(t, u.Password)

	_, err = g.AuthenticateByPathUser(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = g.AuthenticateByPathUser(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestIdentityCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	alice := domain.NewUser("alice", "hash", domain.RoleMember)
	users := newFakeUsers(alice)
	g := NewGuard(users, secret, rdb, time.Minute)
	header := bearer(t, alice.ID, secret, time.Hour)

	_, err := g.Authenticate(ctx, header)
	require.NoError(t, err)
	u, err := g.Authenticate(ctx, header)
	require.NoError(t, err)
	assert.Equal(t, 1, users.reads, "second lookup served from cache")
	assert.Empty(t, u.Password)
	assert.NotContains(t, mustGet(t, mr, identityKey(alice.ID)), "hash")

	users.byID[alice.ID].Role = domain.RoleTreasurer
	g.Forget(ctx, alice.ID)
	u, err = g.Authenticate(ctx, header)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTreasurer, u.Role)
	assert.Equal(t, 2, users.reads)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestRequireRole(t *testing.T) {
	treso := &domain.User{ID: "t", Role: domain.RoleTreasurer}
	assert.NoError(t, RequireRole(treso, domain.RoleTreasurer))
	assert.NoError(t, RequireRole(treso, domain.RolePresident, domain.RoleTreasurer))
	assert.ErrorIs(t, RequireRole(treso, domain.RolePresident, domain.RoleController), domain.ErrForbidden)
	assert.ErrorIs(t, RequireRole(nil, domain.RoleTreasurer), domain.ErrUnauthenticated)
}

func TestCanViewUser(t *testing.T) {
	member := &domain.User{ID: "m", Role: domain.RoleMember}
	assert.True(t, CanViewUser(member, "m"))
	assert.False(t, CanViewUser(member, "other"))
	for _, role := range []domain.Role{domain.RoleTreasurer, domain.RolePresident, domain.RoleController} {
		assert.True(t, CanViewUser(&domain.User{ID: "o", Role: role}, "m"), role)
	}
	assert.False(t, CanViewUser(nil, "m"))
}
