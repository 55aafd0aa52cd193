package domain

import (
	"encoding/json" // JSON encoding
	"fmt"           // Error wrapping
	"strings"       // String normalisation
	"time"          // Timestamps

	"github.com/google/uuid" // UUID identifiers
)

// Type distinguishes incoming funds from expenses
type Type string

// Stored transaction types
const (
	TypeIncome  Type = "entrée" // Funds received
	TypeExpense Type = "sortie" // Funds disbursed
)

// Subtype classifies income transactions
type Subtype string

// Stored income subtypes
const (
	SubtypeDues       Subtype = "cotisation" // Membership dues
	SubtypeCollection Subtype = "collect"    // Fundraising collection
)

// ParseType normalises a transaction type; "income" and "expense" are accepted aliases
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(TypeIncome), "entree", "income":
		return TypeIncome, nil
	case string(TypeExpense), "expense":
		return TypeExpense, nil
	}
	return "", fmt.Errorf("%w: invalid transaction type %q", ErrInvalidInput, s)
}

// ParseSubtype normalises an income subtype; "dues" and "collection" are accepted aliases
func ParseSubtype(s string) (Subtype, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(SubtypeDues), "dues":
		return SubtypeDues, nil
	case string(SubtypeCollection), "collection":
		return SubtypeCollection, nil
	}
	return "", fmt.Errorf("%w: invalid income subtype %q", ErrInvalidInput, s)
}

// Transaction Model
type Transaction struct {
	ID                    string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`                                                   // UUID primary key
	Amount                float64   `gorm:"not null" bson:"amount" json:"amount"`                                                      // Positive amount
	Reason                string    `bson:"reason,omitempty" json:"reason,omitempty"`                                                  // Free text
	InitiatedBy           string    `gorm:"size:36;not null;index" bson:"initiatedBy" json:"initiatedBy"`                              // User who recorded it
	Date                  time.Time `gorm:"not null;index" bson:"date" json:"date"`                                                    // Creation time, UTC
	Donateur              string    `bson:"donateur,omitempty" json:"donateur,omitempty"`                                              // Donor or beneficiary
	Type                  Type      `gorm:"size:16;not null;index" bson:"type" json:"type"`                                            // entrée or sortie
	Subtype               Subtype   `gorm:"size:16" bson:"subtype,omitempty" json:"subtype,omitempty"`                                 // Income only
	ValidatedByTreasurer  *string   `gorm:"size:36;index" bson:"validatedByTreasurer,omitempty" json:"validatedByTreasurer,omitempty"` // Approving treasurer
	RejectedByTreasurer   *string   `gorm:"size:36" bson:"rejectedByTreasurer,omitempty" json:"rejectedByTreasurer,omitempty"`         // Rejecting treasurer
	ValidatedByPresident  bool      `gorm:"not null;default:false" bson:"validatedByPresident" json:"validatedByPresident"`            // President approval
	ValidatedByController bool      `gorm:"not null;default:false" bson:"validatedByController" json:"validatedByController"`          // Controller approval

	InitiatorUsername string `gorm:"-" bson:"-" json:"initiatorUsername,omitempty"` // Filled by queries
	TreasurerUsername string `gorm:"-" bson:"-" json:"treasurerUsername,omitempty"` // Filled by queries
}

// NewIncome builds a submitted income transaction
func NewIncome(amount float64, reason, donor string, subtype Subtype, initiatorID string) (*Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if subtype != SubtypeDues && subtype != SubtypeCollection {
		return nil, fmt.Errorf("%w: invalid income subtype %q", ErrInvalidInput, subtype)
	}
	if initiatorID == "" {
		return nil, fmt.Errorf("%w: initiator is required", ErrInvalidInput)
	}
	return &Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Reason:      reason,
		InitiatedBy: initiatorID,
		Date:        Now(),
		Donateur:    donor,
		Type:        TypeIncome,
		Subtype:     subtype,
	}, nil
}

// NewExpense builds a submitted expense transaction
func NewExpense(amount float64, reason, beneficiary, initiatorID string) (*Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" || strings.TrimSpace(beneficiary) == "" {
		return nil, fmt.Errorf("%w: amount, reason, and beneficiary are required", ErrInvalidInput)
	}
	if initiatorID == "" {
		return nil, fmt.Errorf("%w: initiator is required", ErrInvalidInput)
	}
	return &Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Reason:      reason,
		InitiatedBy: initiatorID,
		Date:        Now(),
		Donateur:    beneficiary,
		Type:        TypeExpense,
	}, nil
}

func checkAmount(amount float64) error {
	if !(amount > 0) { // also rejects NaN
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return nil
}

// Now returns the current time as stored on transactions
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// FullyApproved reports the combined president and controller approval
func (t *Transaction) FullyApproved() bool {
	return t.ValidatedByPresident && t.ValidatedByController
}

// MarshalJSON adds the derived validatedByPresidentAndController field
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		ValidatedByPresidentAndController bool `json:"validatedByPresidentAndController"`
	}{plain(t), t.FullyApproved()})
}

// LeaderboardEntry is one member's total of validated income
type LeaderboardEntry struct {
	UserID     string  `json:"userId" bson:"_id"`
	Username   string  `json:"username" bson:"username"`
	TotalFunds float64 `json:"totalFunds" bson:"totalFunds"`
}
