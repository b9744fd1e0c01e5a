package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventSplitRecorded = "ledger.split_recorded"
	EventSplitPaid     = "ledger.split_paid"
	EventEntryRemoved  = "ledger.entry_removed"
)

// SplitRecordedEvent is the audit payload written when a split bill is
// created.
type SplitRecordedEvent struct {
	EntryID      uuid.UUID       `json:"entry_id"`
	CreatedBy    uuid.UUID       `json:"created_by"`
	PaidBy       string          `json:"paid_by"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	Date         time.Time       `json:"date"`
	Participants []string        `json:"participants"`
}

type SplitPaidEvent struct {
	EntryID     uuid.UUID `json:"entry_id"`
	Participant string    `json:"participant"`
	MarkedBy    uuid.UUID `json:"marked_by"`
}

type EntryRemovedEvent struct {
	EntryID   uuid.UUID `json:"entry_id"`
	RemovedBy uuid.UUID `json:"removed_by"`
	// Legacy is set when the entry was found by natural key rather than by
	// the back-reference stored on the expense.
	Legacy bool `json:"legacy"`
}

func (e Entry) RecordedEvent() SplitRecordedEvent {
	participants := make([]string, 0, len(e.Splits))
	for _, s := range e.Splits {
		participants = append(participants, s.ParticipantEmail)
	}
	return SplitRecordedEvent{
		EntryID:      e.ID,
		CreatedBy:    e.CreatedBy,
		PaidBy:       e.PaidBy,
		Amount:       e.Amount,
		Category:     e.Category,
		Date:         e.Date,
		Participants: participants,
	}
}
