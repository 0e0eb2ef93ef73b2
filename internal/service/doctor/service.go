package doctor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/entitlement"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/internal/service/subscription"
	"github.com/jwalitptl/booking-api/pkg/blobstore"
	"github.com/jwalitptl/booking-api/pkg/clock"
	"github.com/jwalitptl/booking-api/pkg/security"
)

type Service struct {
	repos         *repository.Repositories
	subscriptions *subscription.Service
	entitlements  *entitlement.Service
	hasher        security.PasswordHasher
	blobs         blobstore.Store
	events        event.Emitter
	clock         clock.Clock
}

func NewService(
	repos *repository.Repositories,
	subscriptions *subscription.Service,
	entitlements *entitlement.Service,
	hasher security.PasswordHasher,
	blobs blobstore.Store,
	events event.Emitter,
	clk clock.Clock,
) *Service {
	return &Service{
		repos:         repos,
		subscriptions: subscriptions,
		entitlements:  entitlements,
		hasher:        hasher,
		blobs:         blobs,
		events:        events,
		clock:         clk,
	}
}

// Register creates the doctor's account, profile and trial subscription in
// one transaction. The doctor starts unapproved.
func (s *Service) Register(ctx context.Context, req *model.RegisterDoctorRequest) (*model.Doctor, *model.Subscription, error) {
	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, security.ErrPasswordTooShort) || errors.Is(err, security.ErrPasswordTooLong) {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	var (
		doctor *model.Doctor
		trial  *model.Subscription
	)
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		user := &model.User{
			Email:        req.Email,
			PasswordHash: hash,
			Role:         model.RoleDoctor,
			Status:       model.UserStatusActive,
		}
		user.CreatedAt = now
		if err := s.repos.Users.Create(ctx, user); err != nil {
			return err
		}

		doctor = &model.Doctor{
			UserID:       user.ID,
			Name:         strings.TrimSpace(req.Name),
			Specialty:    strings.TrimSpace(req.Specialty),
			Phone:        strings.TrimSpace(req.Phone),
			Bio:          req.Bio,
			WorkingHours: model.WorkingHours{},
			Email:        user.Email,
			UserStatus:   user.Status,
		}
		doctor.CreatedAt = now
		if err := s.repos.Doctors.Create(ctx, doctor); err != nil {
			return err
		}

		var err error
		trial, err = s.subscriptions.IssueTrial(ctx, doctor.ID)
		if err != nil {
			return err
		}

		return s.events.Emit(ctx, model.EventDoctorRegistered, doctor.ID, doctor)
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("doctor_id", doctor.ID.String()).
		Str("email", doctor.Email).
		Msg("Doctor registered")
	return doctor, trial, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repos.Doctors.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return doctor, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	doctors, err := s.repos.Doctors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

// Approve marks the doctor approved. Repeating it is a no-op.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doctor.Approved {
		return doctor, nil
	}
	doctor.Approved = true
	if err := s.repos.Doctors.Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to approve doctor: %w", err)
	}
	log.Info().Str("doctor_id", id.String()).Msg("Doctor approved")
	return doctor, nil
}

func (s *Service) Suspend(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.setUserStatus(ctx, id, model.UserStatusSuspended)
}

func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.setUserStatus(ctx, id, model.UserStatusActive)
}

func (s *Service) setUserStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) (*model.Doctor, error) {
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doctor.UserStatus == status {
		return doctor, nil
	}
	if err := s.repos.Users.UpdateStatus(ctx, doctor.UserID, status); err != nil {
		return nil, fmt.Errorf("failed to update account status: %w", err)
	}
	doctor.UserStatus = status
	log.Info().Str("doctor_id", id.String()).Str("status", string(status)).Msg("Doctor account status changed")
	return doctor, nil
}

// Delete removes the doctor with everything it owns in one transaction.
// Stored file objects are removed only after the commit.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	var objectKeys []string
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		doctor, err := s.repos.Doctors.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get doctor: %w", err)
		}

		if err := s.repos.Appointments.DeleteByDoctor(ctx, id); err != nil {
			return err
		}
		objectKeys, err = s.repos.Files.DeleteByDoctor(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repos.Subscriptions.DeleteByDoctor(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Reviews.DeleteByDoctor(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Doctors.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Users.Delete(ctx, doctor.UserID); err != nil {
			return err
		}

		return s.events.Emit(ctx, model.EventDoctorDeleted, id, map[string]interface{}{
			"doctor_id": id,
			"user_id":   doctor.UserID,
			"email":     doctor.Email,
		})
	})
	if err != nil {
		return err
	}

	for _, key := range objectKeys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			log.Error().Err(err).Str("object_key", key).Msg("Failed to delete stored object")
		}
	}
	log.Info().Str("doctor_id", id.String()).Int("files", len(objectKeys)).Msg("Doctor deleted")
	return nil
}

func (s *Service) UpdateWorkingHours(ctx context.Context, id uuid.UUID, hours model.WorkingHours) (*model.Doctor, error) {
	if err := hours.Validate(); err != nil {
		return nil, err
	}
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doctor.WorkingHours = hours
	if err := s.repos.Doctors.Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to update working hours: %w", err)
	}
	return doctor, nil
}

// ListBookable returns doctors patients can book right now, highest plan
// priority first.
func (s *Service) ListBookable(ctx context.Context) ([]*model.PublicDoctor, error) {
	doctors, err := s.repos.Doctors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	priorities := map[uuid.UUID]int{}
	out := make([]*model.PublicDoctor, 0, len(doctors))
	for _, d := range doctors {
		ok, sub, err := s.entitlements.IsBookable(ctx, d)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		priority, cached := priorities[sub.PlanID]
		if !cached {
			plan, err := s.repos.Plans.Get(ctx, sub.PlanID)
			if err != nil {
				return nil, fmt.Errorf("failed to get plan: %w", err)
			}
			priority = plan.Priority
			priorities[sub.PlanID] = priority
		}

		out = append(out, &model.PublicDoctor{
			ID:           d.ID,
			Name:         d.Name,
			Specialty:    d.Specialty,
			Bio:          d.Bio,
			WorkingHours: d.WorkingHours,
			PlanPriority: priority,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlanPriority > out[j].PlanPriority
	})
	return out, nil
}
