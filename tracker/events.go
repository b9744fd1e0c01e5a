package tracker

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/permission"
)

const (
	EventExpenseCreated     = "expense.created"
	EventExpenseUpdated     = "expense.updated"
	EventExpenseDeleted     = "expense.deleted"
	EventShareGranted       = "share.granted"
	EventShareRevoked       = "share.revoked"
	EventRoleChanged        = "participant.role_changed"
	EventPartialConsistency = "consistency.partial_failure"
	EventReconciled         = "consistency.reconciled"
)

type ExpenseEvent struct {
	ExpenseID uuid.UUID       `json:"expense_id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
}

type ShareEvent struct {
	GrantID    uuid.UUID        `json:"grant_id"`
	ExpenseID  uuid.UUID        `json:"expense_id"`
	Grantee    string           `json:"grantee"`
	Permission permission.Level `json:"permission,omitempty"`
}

type RoleChangedEvent struct {
	UserID uuid.UUID       `json:"user_id"`
	From   permission.Role `json:"from"`
	To     permission.Role `json:"to"`
}

type PartialConsistencyEvent struct {
	Operation string   `json:"operation"`
	Failures  []string `json:"failures"`
}
