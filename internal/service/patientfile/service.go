package patientfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/entitlement"
	"github.com/jwalitptl/booking-api/pkg/blobstore"
	"github.com/jwalitptl/booking-api/pkg/clock"
)

// Service keeps file metadata and enforces the plan's storage quota. The
// bytes themselves are uploaded elsewhere; this service only deletes them.
type Service struct {
	tx           repository.Transactor
	fileRepo     repository.PatientFileRepository
	patientRepo  repository.PatientRepository
	doctorRepo   repository.DoctorRepository
	entitlements *entitlement.Service
	blobs        blobstore.Store
	clock        clock.Clock
}

func NewService(repos *repository.Repositories, entitlements *entitlement.Service, blobs blobstore.Store, clk clock.Clock) *Service {
	return &Service{
		tx:           repos.Tx,
		fileRepo:     repos.Files,
		patientRepo:  repos.Patients,
		doctorRepo:   repos.Doctors,
		entitlements: entitlements,
		blobs:        blobs,
		clock:        clk,
	}
}

func (s *Service) Record(ctx context.Context, doctorID uuid.UUID, req *model.RecordFileRequest) (*model.PatientFile, error) {
	if req.FileSize <= 0 {
		return nil, fmt.Errorf("%w: file size must be positive", model.ErrInvalidInput)
	}
	if strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.ObjectKey) == "" {
		return nil, fmt.Errorf("%w: file name and object key are required", model.ErrInvalidInput)
	}

	var file *model.PatientFile
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Lock the doctor so two uploads cannot both pass the quota check.
		if _, err := s.doctorRepo.GetForUpdate(ctx, doctorID); err != nil {
			return fmt.Errorf("failed to get doctor: %w", err)
		}
		if _, err := s.patientRepo.Get(ctx, req.PatientID); err != nil {
			return fmt.Errorf("failed to get patient: %w", err)
		}
		if err := s.entitlements.CheckStorage(ctx, doctorID, req.FileSize); err != nil {
			return err
		}

		file = &model.PatientFile{
			DoctorID:  doctorID,
			PatientID: req.PatientID,
			FileName:  strings.TrimSpace(req.FileName),
			ObjectKey: strings.TrimSpace(req.ObjectKey),
			FileSize:  req.FileSize,
			CreatedAt: s.clock.Now(),
		}
		return s.fileRepo.Create(ctx, file)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("doctor_id", doctorID.String()).
		Str("file_id", file.ID.String()).
		Int64("size", file.FileSize).
		Msg("Patient file recorded")
	return file, nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID) ([]*model.PatientFile, error) {
	files, err := s.fileRepo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// Delete removes the record, then the stored object. A failed object
// removal is logged; the record is already gone and no longer counts
// against the quota.
func (s *Service) Delete(ctx context.Context, doctorID, fileID uuid.UUID) error {
	file, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}
	if file.DoctorID != doctorID {
		return fmt.Errorf("patient file: %w", model.ErrNotFound)
	}
	if err := s.fileRepo.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	if err := s.blobs.Delete(ctx, file.ObjectKey); err != nil {
		log.Error().Err(err).Str("object_key", file.ObjectKey).Msg("Failed to delete stored object")
	}
	return nil
}
