package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/pkg/clock"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

type Config struct {
	TrialDays     int
	TrialPlanCode string
	ApprovalDays  int
}

func DefaultConfig() Config {
	return Config{
		TrialDays:     14,
		TrialPlanCode: "trial",
		ApprovalDays:  30,
	}
}

// Service owns every subscription status change. Entitlement itself is
// never written here: a lapsed ACTIVE record simply stops entitling.
type Service struct {
	tx       repository.Transactor
	subRepo  repository.SubscriptionRepository
	doctors  repository.DoctorRepository
	planRepo repository.PlanRepository
	events   event.Emitter
	clock    clock.Clock
	metrics  *metrics.Metrics
	cfg      Config
}

func NewService(repos *repository.Repositories, events event.Emitter, clk clock.Clock, m *metrics.Metrics, cfg Config) *Service {
	if cfg.TrialDays <= 0 {
		cfg.TrialDays = DefaultConfig().TrialDays
	}
	if cfg.ApprovalDays <= 0 {
		cfg.ApprovalDays = DefaultConfig().ApprovalDays
	}
	if cfg.TrialPlanCode == "" {
		cfg.TrialPlanCode = DefaultConfig().TrialPlanCode
	}
	return &Service{
		tx:       repos.Tx,
		subRepo:  repos.Subscriptions,
		doctors:  repos.Doctors,
		planRepo: repos.Plans,
		events:   events,
		clock:    clk,
		metrics:  m,
		cfg:      cfg,
	}
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// IssueTrial grants the trial plan as an ACTIVE subscription starting now.
// Registration calls it inside its own transaction.
func (s *Service) IssueTrial(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error) {
	plan, err := s.planRepo.GetByCode(ctx, s.cfg.TrialPlanCode)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: trial plan %q is not configured", model.ErrPlanUnavailable, s.cfg.TrialPlanCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trial plan: %w", err)
	}

	now := s.clock.Now()
	end := now.Add(days(s.cfg.TrialDays))
	sub := &model.Subscription{
		DoctorID:  doctorID,
		PlanID:    plan.ID,
		Status:    model.SubscriptionStatusActive,
		StartDate: &now,
		EndDate:   &end,
		IsTrial:   true,
	}
	sub.CreatedAt = now

	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to issue trial: %w", err)
	}
	if err := s.events.Emit(ctx, model.EventTrialIssued, doctorID, sub); err != nil {
		return nil, err
	}
	s.metrics.SubscriptionTransition(string(model.SubscriptionStatusActive))

	sub.Plan = plan
	log.Info().
		Str("doctor_id", doctorID.String()).
		Str("subscription_id", sub.ID.String()).
		Time("end_date", end).
		Msg("Trial subscription issued")
	return sub, nil
}

// Request files a PENDING subscription for planID. A doctor may have only one
// request awaiting review.
func (s *Service) Request(ctx context.Context, doctorID, planID uuid.UUID) (*model.Subscription, error) {
	var sub *model.Subscription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.doctors.GetForUpdate(ctx, doctorID); err != nil {
			return fmt.Errorf("failed to get doctor: %w", err)
		}

		plan, err := s.planRepo.Get(ctx, planID)
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: plan %s does not exist", model.ErrPlanUnavailable, planID)
		}
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}
		if !plan.Active {
			return fmt.Errorf("%w: plan %s is not active", model.ErrPlanUnavailable, plan.Code)
		}

		_, err = s.subRepo.FindByStatus(ctx, doctorID, model.SubscriptionStatusPending)
		if err == nil {
			return model.ErrRequestAlreadyPending
		}
		if !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("failed to check pending request: %w", err)
		}

		sub = &model.Subscription{
			DoctorID: doctorID,
			PlanID:   plan.ID,
			Status:   model.SubscriptionStatusPending,
		}
		sub.CreatedAt = s.clock.Now()
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return err
		}
		sub.Plan = plan
		return s.events.Emit(ctx, model.EventSubscriptionRequested, doctorID, sub)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SubscriptionTransition(string(model.SubscriptionStatusPending))
	log.Info().
		Str("doctor_id", doctorID.String()).
		Str("subscription_id", sub.ID.String()).
		Str("plan", sub.Plan.Code).
		Msg("Subscription requested")
	return sub, nil
}

// Renew requests the plan of the doctor's most recently activated
// subscription. Trials cannot be renewed; the doctor must pick a plan.
func (s *Service) Renew(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error) {
	last, err := s.subRepo.LatestActivated(ctx, doctorID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: no subscription to renew", model.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if last.IsTrial {
		return nil, fmt.Errorf("%w: the trial cannot be renewed, choose a plan", model.ErrPlanUnavailable)
	}
	return s.Request(ctx, doctorID, last.PlanID)
}

// Withdraw lets a doctor cancel their own pending request.
func (s *Service) Withdraw(ctx context.Context, doctorID, subscriptionID uuid.UUID) (*model.Subscription, error) {
	var sub *model.Subscription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subRepo.GetForUpdate(ctx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		if sub.DoctorID != doctorID {
			return fmt.Errorf("subscription: %w", model.ErrNotFound)
		}
		return s.cancel(ctx, sub, model.EventSubscriptionWithdrawn)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("subscription_id", subscriptionID.String()).Msg("Subscription request withdrawn")
	return sub, nil
}

// Approve activates a pending request for durationDays (the configured
// default when not positive). Any ACTIVE subscription of the same doctor is
// demoted to EXPIRED in the same transaction, so at most one stays ACTIVE.
func (s *Service) Approve(ctx context.Context, subscriptionID uuid.UUID, durationDays int) (*model.Subscription, error) {
	if durationDays <= 0 {
		durationDays = s.cfg.ApprovalDays
	}

	var (
		sub     *model.Subscription
		demoted int64
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		target, err := s.subRepo.Get(ctx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		// The doctor row lock serializes concurrent approvals for one doctor.
		if _, err := s.doctors.GetForUpdate(ctx, target.DoctorID); err != nil {
			return fmt.Errorf("failed to lock doctor: %w", err)
		}
		sub, err = s.subRepo.GetForUpdate(ctx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		if !sub.Status.CanTransitionTo(model.SubscriptionStatusActive) {
			return fmt.Errorf("%w: subscription is %s", model.ErrInvalidTransition, sub.Status)
		}

		now := s.clock.Now()
		demoted, err = s.subRepo.ExpireActive(ctx, sub.DoctorID, now)
		if err != nil {
			return err
		}

		end := now.Add(days(durationDays))
		sub.Status = model.SubscriptionStatusActive
		sub.StartDate = &now
		sub.EndDate = &end
		if err := s.subRepo.UpdateStatus(ctx, sub); err != nil {
			return err
		}

		return s.events.Emit(ctx, model.EventSubscriptionApproved, sub.DoctorID, map[string]interface{}{
			"subscription": sub,
			"demoted":      demoted,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SubscriptionTransition(string(model.SubscriptionStatusActive))
	log.Info().
		Str("doctor_id", sub.DoctorID.String()).
		Str("subscription_id", sub.ID.String()).
		Int("duration_days", durationDays).
		Int64("demoted", demoted).
		Msg("Subscription approved")

	if err := s.attachPlans(ctx, []*model.Subscription{sub}); err != nil {
		return nil, err
	}
	return sub, nil
}

// Reject cancels a pending request. Other subscriptions are untouched.
func (s *Service) Reject(ctx context.Context, subscriptionID uuid.UUID) (*model.Subscription, error) {
	var sub *model.Subscription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subRepo.GetForUpdate(ctx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		return s.cancel(ctx, sub, model.EventSubscriptionRejected)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("subscription_id", subscriptionID.String()).Msg("Subscription rejected")
	return sub, nil
}

func (s *Service) cancel(ctx context.Context, sub *model.Subscription, eventType string) error {
	if sub.Status != model.SubscriptionStatusPending {
		return fmt.Errorf("%w: subscription is %s", model.ErrInvalidTransition, sub.Status)
	}
	sub.Status = model.SubscriptionStatusCancelled
	if err := s.subRepo.UpdateStatus(ctx, sub); err != nil {
		return err
	}
	s.metrics.SubscriptionTransition(string(model.SubscriptionStatusCancelled))
	return s.events.Emit(ctx, eventType, sub.DoctorID, sub)
}

// Current returns the doctor's most recently created subscription.
func (s *Service) Current(ctx context.Context, doctorID uuid.UUID) (*model.Subscription, error) {
	sub, err := s.subRepo.Latest(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current subscription: %w", err)
	}
	if err := s.attachPlans(ctx, []*model.Subscription{sub}); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) History(ctx context.Context, doctorID uuid.UUID) ([]*model.Subscription, error) {
	subs, err := s.subRepo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if err := s.attachPlans(ctx, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// ListPending is the admin review queue, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]*model.Subscription, error) {
	subs, err := s.subRepo.ListByStatus(ctx, model.SubscriptionStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending subscriptions: %w", err)
	}
	if err := s.attachPlans(ctx, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// ExpireLapsed rewrites the stored status of lapsed ACTIVE records. It is
// housekeeping only; readers already treat those records as expired.
func (s *Service) ExpireLapsed(ctx context.Context) (int64, error) {
	n, err := s.subRepo.ExpireLapsed(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	s.metrics.Expired(n)
	if n > 0 {
		log.Info().Int64("count", n).Msg("Expired lapsed subscriptions")
	}
	return n, nil
}

func (s *Service) attachPlans(ctx context.Context, subs []*model.Subscription) error {
	plans := map[uuid.UUID]*model.Plan{}
	for _, sub := range subs {
		p, ok := plans[sub.PlanID]
		if !ok {
			var err error
			p, err = s.planRepo.Get(ctx, sub.PlanID)
			if err != nil {
				return fmt.Errorf("failed to get plan: %w", err)
			}
			plans[sub.PlanID] = p
		}
		sub.Plan = p
	}
	return nil
}
