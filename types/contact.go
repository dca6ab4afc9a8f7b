package types

import "time"

// Contact submission statuses.
const (
	ContactStatusNew     = "new"
	ContactStatusRead    = "read"
	ContactStatusReplied = "replied"
)

// Contact represents a contact-form submission and its handling state.
type Contact struct {
	// ID is the unique identifier of the submission.
	ID int `json:"id" db:"id"`

	// Name is the sender's name.
	Name string `json:"name" db:"name"`

	// Email is the sender's email address, lowercased.
	Email string `json:"email" db:"email"`

	// Phone is the sender's optional phone number.
	Phone string `json:"phone,omitempty" db:"phone"`

	// Subject is the submission subject line.
	Subject string `json:"subject" db:"subject"`

	// Message is the submission body.
	Message string `json:"message" db:"message"`

	// Status is one of "new", "read", or "replied".
	Status string `json:"status" db:"status"`

	// Reply is the admin's reply text, once one has been sent.
	Reply string `json:"reply,omitempty" db:"reply"`

	// ReplyDate is when the reply was recorded.
	ReplyDate *time.Time `json:"reply_date,omitempty" db:"reply_date"`

	// IPAddress is the client address the submission arrived from.
	IPAddress string `json:"-" db:"ip_address"`

	// CreatedAt is the timestamp when the submission arrived.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
