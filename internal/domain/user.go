package domain

import (
	"fmt"     // Error wrapping
	"strings" // String normalisation

	"github.com/google/uuid" // UUID identifiers
)

// Role is the association function held by a user
type Role string

// Stored role values, kept identical to the values already present in production data
const (
	RoleMember     Role = "user"      // Regular member
	RoleTreasurer  Role = "tresorier" // Treasurer
	RolePresident  Role = "president" // President
	RoleController Role = "PCO"       // Controller
)

// roleAliases maps accepted input spellings to stored role values
var roleAliases = map[string]Role{
	"user":       RoleMember,
	"member":     RoleMember,
	"tresorier":  RoleTreasurer,
	"treasurer":  RoleTreasurer,
	"president":  RolePresident,
	"pco":        RoleController,
	"controller": RoleController,
}

// ParseRole normalises a role name, accepting both stored values and English aliases
func ParseRole(s string) (Role, error) {
	if r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// IsOfficer reports whether the role belongs to the association board
func (r Role) IsOfficer() bool {
	return r == RoleTreasurer || r == RolePresident || r == RoleController
}

// User Model
type User struct {
	ID       string `gorm:"primaryKey;size:36" bson:"_id" json:"id"`                      // UUID primary key
	Username string `gorm:"uniqueIndex;size:64;not null" bson:"username" json:"username"` // Unique username, lowercase
	Password string `gorm:"not null" bson:"password" json:"-"`                            // Hashed password, never serialised
	Role     Role   `gorm:"size:16;not null;default:user" bson:"role" json:"role"`        // Association role
}

// NewUser builds a user with a fresh identifier
func NewUser(username, passwordHash string, role Role) *User {
	return &User{
		ID:       uuid.NewString(),                             // Fresh identifier
		Username: strings.ToLower(strings.TrimSpace(username)), // Usernames are case-insensitive
		Password: passwordHash,                                 // Already hashed
		Role:     role,
	}
}

// Identity returns a copy of the user without the password hash
func (u User) Identity() *User {
	u.Password = ""
	return &u
}
