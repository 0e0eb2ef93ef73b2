package model

// Patient is deduplicated by phone number.
type Patient struct {
	Base
	Name  string `db:"name" json:"name"`
	Phone string `db:"phone" json:"phone"`
	Email string `db:"email" json:"email,omitempty"`
	Notes string `db:"notes" json:"notes,omitempty"`
}
