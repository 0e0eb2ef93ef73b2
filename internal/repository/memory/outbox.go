package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

type outboxRepository struct {
	s *Store
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}
	defer r.s.write(ctx)()
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	event.Status = model.OutboxStatusPending
	r.s.outbox[event.ID] = *event
	r.s.track(event.ID)
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	defer r.s.read()()
	var events []*model.OutboxEvent
	for _, e := range r.s.outbox {
		if e.Status == model.OutboxStatusPending {
			e := e
			events = append(events, &e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return r.s.order[events[i].ID] < r.s.order[events[j].ID]
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	defer r.s.write(ctx)()
	e, ok := r.s.outbox[id]
	if !ok {
		return fmt.Errorf("outbox event: %w", model.ErrNotFound)
	}
	now := time.Now()
	e.Status = status
	e.ErrorMessage = errMsg
	if errMsg != nil {
		e.RetryCount++
	}
	if status == model.OutboxStatusProcessed {
		e.ProcessedAt = &now
	}
	e.UpdatedAt = now
	r.s.outbox[id] = e
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.write(ctx)()
	var n int64
	for id, e := range r.s.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.s.outbox, id)
			n++
		}
	}
	return n, nil
}
