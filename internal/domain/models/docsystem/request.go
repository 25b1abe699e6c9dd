package docsystem

import "time"

// RequestStatus is the state of a document request ticket.
// Transitions: open -> fulfilled | declined, never back.
type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestDeclined  RequestStatus = "declined"
)

// CanTransition reports whether moving from s to next is allowed
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	return s == RequestOpen && (next == RequestFulfilled || next == RequestDeclined)
}

// DocumentRequest is a workflow ticket asking someone to provide a document
type DocumentRequest struct {
	ID            string        `json:"id" db:"id"`
	RequesterID   string        `json:"requester_id" db:"requester_id"`
	RequesterType string        `json:"requester_type" db:"requester_type"`
	TargetID      string        `json:"target_id" db:"target_id"`
	TargetType    string        `json:"target_type" db:"target_type"`
	Title         string        `json:"title" db:"title"`
	Message       *string       `json:"message,omitempty" db:"message"`
	Status        RequestStatus `json:"status" db:"status"`
	DueDate       *time.Time    `json:"due_date,omitempty" db:"due_date"`
	DocumentID    *string       `json:"document_id,omitempty" db:"document_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}
