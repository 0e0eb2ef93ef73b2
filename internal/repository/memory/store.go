// Package memory is an in-process implementation of the repository
// interfaces. It backs the service tests and local runs without postgres and
// enforces the same uniqueness rules as the postgres schema.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type txKey struct{}

// Store holds every table. Writers are serialized by txMu; a transaction
// holds txMu for its whole duration and restores a snapshot on error.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	seq  int64

	order        map[uuid.UUID]int64
	plans        map[uuid.UUID]model.Plan
	subs         map[uuid.UUID]model.Subscription
	users        map[uuid.UUID]model.User
	doctors      map[uuid.UUID]model.Doctor
	patients     map[uuid.UUID]model.Patient
	appointments map[uuid.UUID]model.Appointment
	files        map[uuid.UUID]model.PatientFile
	reviews      map[uuid.UUID]model.Review
	outbox       map[uuid.UUID]model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		order:        map[uuid.UUID]int64{},
		plans:        map[uuid.UUID]model.Plan{},
		subs:         map[uuid.UUID]model.Subscription{},
		users:        map[uuid.UUID]model.User{},
		doctors:      map[uuid.UUID]model.Doctor{},
		patients:     map[uuid.UUID]model.Patient{},
		appointments: map[uuid.UUID]model.Appointment{},
		files:        map[uuid.UUID]model.PatientFile{},
		reviews:      map[uuid.UUID]model.Review{},
		outbox:       map[uuid.UUID]model.OutboxEvent{},
	}
}

// NewRepositories returns every repository backed by one fresh Store.
func NewRepositories() *repository.Repositories {
	s := NewStore()
	return &repository.Repositories{
		Tx:            s,
		Plans:         &planRepository{s},
		Subscriptions: &subscriptionRepository{s},
		Users:         &userRepository{s},
		Doctors:       &doctorRepository{s},
		Patients:      &patientRepository{s},
		Appointments:  &appointmentRepository{s},
		Files:         &patientFileRepository{s},
		Reviews:       &reviewRepository{s},
		Outbox:        &outboxRepository{s},
	}
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// WithinTx runs fn with exclusive write access. Nested calls join the outer
// transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// write takes the data lock for a mutation, also taking the writer lock when
// ctx is not already inside a transaction.
func (s *Store) write(ctx context.Context) func() {
	tx := inTx(ctx)
	if !tx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !tx {
			s.txMu.Unlock()
		}
	}
}

func (s *Store) read() func() {
	s.mu.RLock()
	return s.mu.RUnlock
}

// track records insertion order, used to break created_at ties.
func (s *Store) track(id uuid.UUID) {
	if _, ok := s.order[id]; ok {
		return
	}
	s.seq++
	s.order[id] = s.seq
}

type snapshot struct {
	seq          int64
	order        map[uuid.UUID]int64
	plans        map[uuid.UUID]model.Plan
	subs         map[uuid.UUID]model.Subscription
	users        map[uuid.UUID]model.User
	doctors      map[uuid.UUID]model.Doctor
	patients     map[uuid.UUID]model.Patient
	appointments map[uuid.UUID]model.Appointment
	files        map[uuid.UUID]model.PatientFile
	reviews      map[uuid.UUID]model.Review
	outbox       map[uuid.UUID]model.OutboxEvent
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		seq:          s.seq,
		order:        cloneMap(s.order),
		plans:        cloneMap(s.plans),
		subs:         cloneMap(s.subs),
		users:        cloneMap(s.users),
		doctors:      cloneMap(s.doctors),
		patients:     cloneMap(s.patients),
		appointments: cloneMap(s.appointments),
		files:        cloneMap(s.files),
		reviews:      cloneMap(s.reviews),
		outbox:       cloneMap(s.outbox),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.order = snap.order
	s.plans = snap.plans
	s.subs = snap.subs
	s.users = snap.users
	s.doctors = snap.doctors
	s.patients = snap.patients
	s.appointments = snap.appointments
	s.files = snap.files
	s.reviews = snap.reviews
	s.outbox = snap.outbox
}

// Stored values are never mutated in place, so a shallow copy is a snapshot.
func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// newer reports whether record a sorts after record b by creation.
func (s *Store) newer(a, b model.Base) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return s.order[a.ID] > s.order[b.ID]
}
