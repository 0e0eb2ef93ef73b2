package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

const (
	listActiveKey = "plans:active"
	listAllKey    = "plans:all"
)

type CacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:             5 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

// Service is the plan catalog. Plans are read on every booking and request,
// so reads go through an in-process cache that admin writes flush.
type Service struct {
	repo  repository.PlanRepository
	cache *cache.Cache
}

func NewService(repo repository.PlanRepository, cfg CacheConfig) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cfg.TTL, cfg.CleanupInterval),
	}
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]*model.Plan, error) {
	key := listActiveKey
	if includeInactive {
		key = listAllKey
	}
	if cached, found := s.cache.Get(key); found {
		return cached.([]*model.Plan), nil
	}

	plans, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	s.cache.Set(key, plans, cache.DefaultExpiration)
	return plans, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	key := "plan:" + id.String()
	if cached, found := s.cache.Get(key); found {
		p := *cached.(*model.Plan)
		return &p, nil
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	cp := *p
	s.cache.Set(key, &cp, cache.DefaultExpiration)
	return p, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*model.Plan, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %q: %w", code, err)
	}
	return p, nil
}

func validate(p *model.Plan) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("%w: plan code is required", model.ErrInvalidInput)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", model.ErrInvalidInput)
	}
	if p.MaxAppointments < 0 || p.MaxStorageMB < 0 {
		return fmt.Errorf("%w: quotas must not be negative", model.ErrInvalidInput)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req *model.CreatePlanRequest) (*model.Plan, error) {
	p := &model.Plan{
		Code:            strings.TrimSpace(req.Code),
		NameEn:          req.NameEn,
		NameAr:          req.NameAr,
		Price:           req.Price,
		MaxAppointments: req.MaxAppointments,
		MaxStorageMB:    req.MaxStorageMB,
		Priority:        req.Priority,
		Active:          req.Active == nil || *req.Active,
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	s.cache.Flush()

	log.Info().Str("plan_id", p.ID.String()).Str("code", p.Code).Msg("Plan created")
	return p, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePlanRequest) (*model.Plan, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	if req.NameEn != nil {
		p.NameEn = *req.NameEn
	}
	if req.NameAr != nil {
		p.NameAr = *req.NameAr
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.MaxAppointments != nil {
		p.MaxAppointments = *req.MaxAppointments
	}
	if req.MaxStorageMB != nil {
		p.MaxStorageMB = *req.MaxStorageMB
	}
	if req.Priority != nil {
		p.Priority = *req.Priority
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	s.cache.Flush()
	return p, nil
}

// SetActive toggles whether the plan can be chosen for new requests.
// Existing subscriptions on the plan are unaffected.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.Plan, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if p.Active == active {
		return p, nil
	}
	p.Active = active
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	s.cache.Flush()

	log.Info().Str("plan_id", id.String()).Bool("active", active).Msg("Plan availability changed")
	return p, nil
}

// EnsureDefaults creates any of plans whose code does not exist yet.
func (s *Service) EnsureDefaults(ctx context.Context, plans []model.CreatePlanRequest) (int, error) {
	created := 0
	for i := range plans {
		_, err := s.repo.GetByCode(ctx, plans[i].Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return created, fmt.Errorf("failed to look up plan %q: %w", plans[i].Code, err)
		}
		if _, err := s.Create(ctx, &plans[i]); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
