package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"asso_funds/internal/auth"
	"asso_funds/internal/domain"
	"asso_funds/internal/store"
	"asso_funds/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,32}$`)

// bcrypt ignores bytes past 72
const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

// Users handles registration, login and credential changes
type Users struct {
	store    store.Users   // Identity store
	guard    *auth.Guard   // Identity cache to invalidate, may be nil
	rdb      *redis.Client // Listing cache to invalidate, may be nil
	secret   string        // JWT signing key
	tokenTTL time.Duration // Lifetime of issued tokens
}

// NewUsers builds the user service. guard and rdb may be nil when no cache needs invalidating
func NewUsers(st store.Users, guard *auth.Guard, rdb *redis.Client, secret string, tokenTTL time.Duration) *Users {
	return &Users{store: st, guard: guard, rdb: rdb, secret: secret, tokenTTL: tokenTTL}
}

// LoginResult is returned by a successful login
type LoginResult struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	Token    string      `json:"token"`
}

func validateCredentials(username, password string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-32 letters, digits, '.', '_' or '-'", domain.ErrInvalidInput)
	}
	return validatePassword(password)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password must be %d-%d characters", domain.ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}
	return nil
}

// Register creates a member account. Board roles are granted through Create
func (s *Users) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.Create(ctx, username, password, domain.RoleMember)
}

// Create creates an account with any role
func (s *Users) Create(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(string(role))
	if err != nil {
		return nil, err
	}
	if _, err := s.store.UserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: user already exists", domain.ErrInvalidInput)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := domain.NewUser(username, hash, role)
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user already exists", domain.ErrInvalidInput)
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username, "role": u.Role}).Info("User created")
	return u.Identity(), nil
}

// Login checks the credentials and issues a token
func (s *Users) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.store.UserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthenticated)
	} else if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(u.Password, password) {
		return nil, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthenticated)
	}
	token, err := utils.GenerateJWT(u.ID, s.secret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResult{ID: u.ID, Username: u.Username, Role: u.Role, Token: token}, nil
}

// ChangePassword replaces the password of userID after checking the old one
func (s *Users) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(u.Password, oldPassword) {
		return fmt.Errorf("%w: old password is incorrect", domain.ErrUnauthenticated)
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.forget(ctx, userID)
	logrus.WithField("user_id", userID).Info("Password changed")
	return nil
}

// SetRole changes the role of the named user
func (s *Users) SetRole(ctx context.Context, username string, role domain.Role) error {
	role, err := domain.ParseRole(string(role))
	if err != nil {
		return err
	}
	u, err := s.store.UserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return err
	}
	if err := s.store.UpdateRole(ctx, u.ID, role); err != nil {
		return err
	}
	s.forget(ctx, u.ID)
	// the leaderboard only ranks members
	invalidateListings(ctx, s.rdb)
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "from": u.Role, "to": role}).Info("Role changed")
	return nil
}

// Directory paging limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MemberPage is one page of the member directory
type MemberPage struct {
	Users      []*domain.User `json:"users"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// List returns one page of the directory, ordered by username, without password hashes.
// Out-of-range page values fall back to the defaults
func (s *Users) List(ctx context.Context, page, pageSize int) (*MemberPage, error) {
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	// keeps the offset within a 32-bit range on every backend
	if page < 1 || page > math.MaxInt32/pageSize {
		page = 1
	}
	users, total, err := s.store.ListUsers(ctx, store.Page{Offset: (page - 1) * pageSize, Limit: pageSize})
	if err != nil {
		return nil, err
	}
	out := &MemberPage{
		Users:      make([]*domain.User, 0, len(users)),
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
	for _, u := range users {
		out.Users = append(out.Users, u.Identity())
	}
	return out, nil
}

func (s *Users) forget(ctx context.Context, userID string) {
	if s.guard != nil {
		s.guard.Forget(ctx, userID)
	}
}
