package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	defer r.s.write(ctx)()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return model.ErrEmailTaken
		}
	}
	user.Init()
	r.s.users[user.ID] = *user
	r.s.track(user.ID)
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer r.s.read()()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", model.ErrNotFound)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer r.s.read()()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", model.ErrNotFound)
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) error {
	defer r.s.write(ctx)()
	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user: %w", model.ErrNotFound)
	}
	u.Status = status
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.write(ctx)()
	delete(r.s.users, id)
	return nil
}

type doctorRepository struct {
	s *Store
}

// withUser copies d and fills the fields postgres joins from users.
func (r *doctorRepository) withUser(d model.Doctor) *model.Doctor {
	d.WorkingHours = cloneHours(d.WorkingHours)
	if u, ok := r.s.users[d.UserID]; ok {
		d.Email = u.Email
		d.UserStatus = u.Status
	}
	return &d
}

func cloneHours(h model.WorkingHours) model.WorkingHours {
	out := make(model.WorkingHours, len(h))
	for day, iv := range h {
		if iv == nil {
			out[day] = nil
			continue
		}
		cp := *iv
		out[day] = &cp
	}
	return out
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.users[doctor.UserID]; !ok {
		return fmt.Errorf("failed to create doctor: user %s does not exist", doctor.UserID)
	}
	doctor.Init()
	stored := *doctor
	stored.WorkingHours = cloneHours(doctor.WorkingHours)
	r.s.doctors[doctor.ID] = stored
	r.s.track(doctor.ID)
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	defer r.s.read()()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, fmt.Errorf("doctor: %w", model.ErrNotFound)
	}
	return r.withUser(d), nil
}

func (r *doctorRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return r.Get(ctx, id)
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	defer r.s.read()()
	doctors := make([]*model.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		doctors = append(doctors, r.withUser(d))
	}
	sort.Slice(doctors, func(i, j int) bool {
		return r.s.newer(doctors[j].Base, doctors[i].Base)
	})
	return doctors, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	defer r.s.write(ctx)()
	stored, ok := r.s.doctors[doctor.ID]
	if !ok {
		return fmt.Errorf("doctor: %w", model.ErrNotFound)
	}
	stored.Name = doctor.Name
	stored.Specialty = doctor.Specialty
	stored.Phone = doctor.Phone
	stored.Bio = doctor.Bio
	stored.Approved = doctor.Approved
	stored.WorkingHours = cloneHours(doctor.WorkingHours)
	stored.UpdatedAt = time.Now()
	doctor.UpdatedAt = stored.UpdatedAt
	r.s.doctors[doctor.ID] = stored
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.doctors[id]; !ok {
		return fmt.Errorf("doctor: %w", model.ErrNotFound)
	}
	delete(r.s.doctors, id)
	return nil
}
