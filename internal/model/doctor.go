package model

import (
	"github.com/google/uuid"
)

// Doctor is the aggregate owning subscriptions, appointments, files and
// reviews. UserStatus and Email are read from the linked user account.
type Doctor struct {
	Base
	UserID       uuid.UUID    `db:"user_id" json:"user_id"`
	Name         string       `db:"name" json:"name"`
	Specialty    string       `db:"specialty" json:"specialty"`
	Phone        string       `db:"phone" json:"phone"`
	Bio          string       `db:"bio" json:"bio,omitempty"`
	Approved     bool         `db:"approved" json:"approved"`
	WorkingHours WorkingHours `db:"working_hours" json:"working_hours"`
	Email        string       `db:"email" json:"email"`
	UserStatus   UserStatus   `db:"user_status" json:"user_status"`
}

// Available reports the account-level half of bookability: approved by an
// admin and not suspended.
func (d *Doctor) Available() bool {
	return d.Approved && d.UserStatus == UserStatusActive
}

type RegisterDoctorRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	Name      string `json:"name" binding:"required"`
	Specialty string `json:"specialty" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Bio       string `json:"bio" binding:"max=2000"`
}

// PublicDoctor is the listing shape on the public booking surface.
type PublicDoctor struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Specialty    string       `json:"specialty"`
	Bio          string       `json:"bio,omitempty"`
	WorkingHours WorkingHours `json:"working_hours"`
	PlanPriority int          `json:"-"`
}

type Review struct {
	Base
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientName string    `db:"patient_name" json:"patient_name"`
	Rating      int       `db:"rating" json:"rating"`
	Comment     string    `db:"comment" json:"comment,omitempty"`
}
