package events

import (
	"encoding/json"
	"time"
)

// Event types carried on the expense events queue.
const (
	TypeExpenseCreated = "expense.created"
	TypeExpenseUpdated = "expense.updated"
	TypeExpenseDeleted = "expense.deleted"
	TypeExpensesPurged = "expense.purged" // bulk delete on account closure
)

// ExpenseEvent is a lightweight notification about an expense mutation.
// Consumers fetch whatever detail they need from the store; the message
// only carries enough to locate the affected month.
type ExpenseEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	ExpenseID string    `json:"expenseId,omitempty"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(eventType, userID, expenseID string, year, month int) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      eventType,
		UserID:    userID,
		ExpenseID: expenseID,
		Year:      year,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var event ExpenseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
