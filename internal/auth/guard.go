// Package auth resolves bearer credentials to users and decides role access.
// Nothing here depends on the HTTP framework; internal/middleware adapts it to gin
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"asso_funds/internal/domain"
	"asso_funds/internal/store"
	"asso_funds/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Guard authenticates requests against the identity store
type Guard struct {
	users    store.Users   // Identity store
	secret   string        // HMAC key for tokens
	rdb      *redis.Client // Optional identity cache
	cacheTTL time.Duration // Lifetime of cached identities
}

// NewGuard builds a Guard. rdb may be nil
func NewGuard(users store.Users, secret string, rdb *redis.Client, cacheTTL time.Duration) *Guard {
	return &Guard{users: users, secret: secret, rdb: rdb, cacheTTL: cacheTTL}
}

func identityKey(userID string) string {
	return "user:" + userID + ":identity"
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: missing or invalid Authorization header", domain.ErrUnauthenticated)
	}
	return strings.TrimSpace(token), nil
}

// Authenticate verifies the bearer credential in header and returns the user it
// names, without password hash
func (g *Guard) Authenticate(ctx context.Context, header string) (*domain.User, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	claims, err := utils.ParseJWT(token, g.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthenticated)
	}
	u, err := g.identity(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: user from token no longer exists", domain.ErrUnauthenticated)
	}
	return u, err
}

// AuthenticateByPathUser trusts a caller-supplied user id and only checks that the
// user exists. It performs no credential check
func (g *Guard) AuthenticateByPathUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", domain.ErrUnauthenticated)
	}
	return g.identity(ctx, userID)
}

func (g *Guard) identity(ctx context.Context, userID string) (*domain.User, error) {
	var cached domain.User
	found, err := utils.GetCache(ctx, g.rdb, identityKey(userID), &cached)
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Identity cache read failed")
	} else if found {
		return &cached, nil
	}
	u, err := g.users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	id := u.Identity()
	if err := utils.SetCache(ctx, g.rdb, identityKey(userID), id, g.cacheTTL); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Identity cache write failed")
	}
	return id, nil
}

// Forget drops the cached identity of a user after its password or role changed
func (g *Guard) Forget(ctx context.Context, userID string) {
	if err := utils.DeleteCache(ctx, g.rdb, identityKey(userID)); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Identity cache delete failed")
	}
}

// RequireRole fails with ErrForbidden unless u holds one of allowed
func RequireRole(u *domain.User, allowed ...domain.Role) error {
	if u == nil {
		return domain.ErrUnauthenticated
	}
	if !slices.Contains(allowed, u.Role) {
		return fmt.Errorf("%w: role %q not permitted", domain.ErrForbidden, u.Role)
	}
	return nil
}

// CanViewUser reports whether viewer may read the records of userID: their own,
// or anyone's for board members
func CanViewUser(viewer *domain.User, userID string) bool {
	return viewer != nil && (viewer.ID == userID || viewer.Role.IsOfficer())
}
