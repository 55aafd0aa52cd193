// Package sqlstore implements store.Store on GORM (MySQL, PostgreSQL, SQLite)
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"asso_funds/internal/domain"
	"asso_funds/internal/store"

	"gorm.io/gorm"
)

// Store wraps a GORM connection
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open GORM connection. The schema must already be migrated
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", store.ErrDuplicate, what)
	}
	return err
}

// CreateUser inserts a user; a taken username yields store.ErrDuplicate
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error, "username already exists")
}

// UserByID loads a user by id
func (s *Store) UserByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err, "user not found")
	}
	return &u, nil
}

// UserByUsername loads a user by its lowercase username
func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&u).Error; err != nil {
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
	var users []domain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// ListUsers returns one page of users ordered by username, and the total count
func (s *Store) ListUsers(ctx context.Context, p store.Page) ([]domain.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := []domain.User{}
	if err := s.db.WithContext(ctx).Order("username ASC").Offset(p.Offset).Limit(p.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdatePassword replaces the password hash of a user
func (s *Store) UpdatePassword(ctx context.Context, id, hash string) error {
	return s.updateUser(ctx, id, "password", hash)
}

// UpdateRole replaces the role of a user
func (s *Store) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	return s.updateUser(ctx, id, "role", role)
}

func (s *Store) updateUser(ctx context.Context, id, column string, value any) error {
	res := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the value is unchanged
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	return nil
}
