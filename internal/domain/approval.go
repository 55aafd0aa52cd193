package domain

import "fmt"

// State is the position of a transaction in its approval workflow
type State string

// Approval states
const (
	StateSubmitted          State = "submitted"
	StateTreasurerApproved  State = "treasurer_approved"
	StateTreasurerRejected  State = "treasurer_rejected"
	StatePresidentApproved  State = "president_approved"
	StateControllerApproved State = "controller_approved"
	StateFullyApproved      State = "fully_approved"
)

// State derives the workflow state from the approval fields.
func (t *Transaction) State() State {
	if t.Type == TypeIncome {
		switch {
		case t.ValidatedByTreasurer != nil:
			return StateTreasurerApproved
		case t.RejectedByTreasurer != nil:
			return StateTreasurerRejected
		}
		return StateSubmitted
	}
	switch {
	case t.FullyApproved():
		return StateFullyApproved
	case t.ValidatedByPresident:
		return StatePresidentApproved
	case t.ValidatedByController:
		return StateControllerApproved
	}
	return StateSubmitted
}

// TreasurerDecided reports whether a treasurer already validated or rejected the transaction.
func (t *Transaction) TreasurerDecided() bool {
	return t.ValidatedByTreasurer != nil || t.RejectedByTreasurer != nil
}

// ApproveIncome records a treasurer validation. Both treasurer fields must be unset.
func (t *Transaction) ApproveIncome(treasurerID string) error {
	if err := t.checkIncomeDecision(); err != nil {
		return err
	}
	id := treasurerID
	t.ValidatedByTreasurer = &id
	return nil
}

// RejectIncome records a treasurer rejection. Both treasurer fields must be unset.
func (t *Transaction) RejectIncome(treasurerID string) error {
	if err := t.checkIncomeDecision(); err != nil {
		return err
	}
	id := treasurerID
	t.RejectedByTreasurer = &id
	return nil
}

func (t *Transaction) checkIncomeDecision() error {
	if t.Type != TypeIncome {
		return fmt.Errorf("%w: transaction is not an income", ErrInvalidInput)
	}
	if t.ValidatedByTreasurer != nil {
		return fmt.Errorf("%w: transaction already validated by a treasurer", ErrAlreadyDecided)
	}
	if t.RejectedByTreasurer != nil {
		return fmt.Errorf("%w: transaction already rejected by a treasurer", ErrAlreadyDecided)
	}
	return nil
}

// ApproveExpense sets the approval flag of the given board role. Each flag is set at most once.
func (t *Transaction) ApproveExpense(role Role) error {
	if t.Type != TypeExpense {
		return fmt.Errorf("%w: transaction is not an expense", ErrInvalidInput)
	}
	switch role {
	case RolePresident:
		if t.ValidatedByPresident {
			return fmt.Errorf("%w: transaction already validated by the president", ErrAlreadyDecided)
		}
		t.ValidatedByPresident = true
	case RoleController:
		if t.ValidatedByController {
			return fmt.Errorf("%w: transaction already validated by the controller", ErrAlreadyDecided)
		}
		t.ValidatedByController = true
	default:
		return fmt.Errorf("%w: role %q cannot validate expenses", ErrForbidden, role)
	}
	return nil
}
