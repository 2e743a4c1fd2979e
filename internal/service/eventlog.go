package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"cputemp_fitting/internal/models"
	"cputemp_fitting/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}
	return from, to, normalizeEventType(f.Type), nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.RunEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

// EventCursor marks how far a consumer has read the event log. Stored
// timestamps have second resolution, so the IDs already delivered within the
// cursor's second are remembered.
type EventCursor struct {
	At   time.Time
	seen map[string]struct{}
}

// NewEventCursor starts reading at the second containing at.
func NewEventCursor(at time.Time) EventCursor {
	return EventCursor{At: at.UTC().Truncate(time.Second)}
}

// Since returns the events appended after cur, oldest first, and the cursor
// to pass on the next call.
func (s *EventLogService) Since(ctx context.Context, cur EventCursor) ([]models.RunEvent, EventCursor, error) {
	evs, err := s.eventRepo.List(ctx, normalizeToUTC(cur.At), time.Time{}, "")
	if err != nil {
		return nil, cur, err
	}

	next := EventCursor{At: cur.At, seen: make(map[string]struct{}, len(cur.seen))}
	for id := range cur.seen {
		next.seen[id] = struct{}{}
	}

	var fresh []models.RunEvent
	for _, e := range evs {
		if _, ok := next.seen[e.EventID]; ok {
			continue
		}
		fresh = append(fresh, e)

		at := e.OccurredAt.UTC().Truncate(time.Second)
		switch {
		case at.After(next.At):
			next.At = at
			next.seen = map[string]struct{}{e.EventID: {}}
		case at.Equal(next.At):
			next.seen[e.EventID] = struct{}{}
		}
	}
	return fresh, next, nil
}
