package model

import (
	"time"

	"github.com/google/uuid"
)

// PatientFile is the metadata of an uploaded document. FileSize counts
// against the owning doctor's storage quota.
type PatientFile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	ObjectKey string    `db:"object_key" json:"object_key"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type RecordFileRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	FileName  string    `json:"file_name" binding:"required,max=255"`
	ObjectKey string    `json:"object_key" binding:"required,max=512"`
	FileSize  int64     `json:"file_size" binding:"required,gt=0"`
}
