package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

type patientFileRepository struct {
	s *Store
}

func (r *patientFileRepository) Create(ctx context.Context, file *model.PatientFile) error {
	defer r.s.write(ctx)()
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}
	r.s.files[file.ID] = *file
	r.s.track(file.ID)
	return nil
}

func (r *patientFileRepository) Get(ctx context.Context, id uuid.UUID) (*model.PatientFile, error) {
	defer r.s.read()()
	f, ok := r.s.files[id]
	if !ok {
		return nil, fmt.Errorf("patient file: %w", model.ErrNotFound)
	}
	return &f, nil
}

func (r *patientFileRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.PatientFile, error) {
	defer r.s.read()()
	var files []*model.PatientFile
	for _, f := range r.s.files {
		if f.DoctorID == doctorID {
			f := f
			files = append(files, &f)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.After(files[j].CreatedAt)
		}
		return r.s.order[files[i].ID] > r.s.order[files[j].ID]
	})
	return files, nil
}

func (r *patientFileRepository) SumSizeByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	defer r.s.read()()
	var total int64
	for _, f := range r.s.files {
		if f.DoctorID == doctorID {
			total += f.FileSize
		}
	}
	return total, nil
}

func (r *patientFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.files[id]; !ok {
		return fmt.Errorf("patient file: %w", model.ErrNotFound)
	}
	delete(r.s.files, id)
	return nil
}

func (r *patientFileRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) ([]string, error) {
	defer r.s.write(ctx)()
	var keys []string
	for id, f := range r.s.files {
		if f.DoctorID == doctorID {
			keys = append(keys, f.ObjectKey)
			delete(r.s.files, id)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type reviewRepository struct {
	s *Store
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	defer r.s.write(ctx)()
	review.Init()
	r.s.reviews[review.ID] = *review
	r.s.track(review.ID)
	return nil
}

func (r *reviewRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Review, error) {
	defer r.s.read()()
	var reviews []*model.Review
	for _, rv := range r.s.reviews {
		if rv.DoctorID == doctorID {
			rv := rv
			reviews = append(reviews, &rv)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return r.s.newer(reviews[i].Base, reviews[j].Base)
	})
	return reviews, nil
}

func (r *reviewRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	defer r.s.write(ctx)()
	for id, rv := range r.s.reviews {
		if rv.DoctorID == doctorID {
			delete(r.s.reviews, id)
		}
	}
	return nil
}
