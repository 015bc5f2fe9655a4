// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/meetingsapi/meetings/internal/busy"
	"github.com/meetingsapi/meetings/internal/cache"
	"github.com/meetingsapi/meetings/internal/calendar"
	"github.com/meetingsapi/meetings/internal/events"
	"github.com/meetingsapi/meetings/internal/metrics"
	"github.com/meetingsapi/meetings/internal/model"
	"github.com/meetingsapi/meetings/internal/repository"
)

// Service errors.
var (
	ErrNoMeetings      = errors.New("no meetings found")
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrTitleExists     = errors.New("meeting title already exists")
	ErrInvalidDuration = errors.New("end datetime must be after start datetime")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrNothingToUpdate = errors.New("nothing to update")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidTitle    = errors.New("invalid meeting title")
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidWindow   = errors.New("endDatetime must be after startDatetime")
)

// MeetingStore persists meetings. Implemented by repository.Repository and memstore.Store.
type MeetingStore interface {
	CreateMeeting(ctx context.Context, m *model.Meeting) error
	GetMeetingByTitle(ctx context.Context, title string) (*model.Meeting, error)
	FindMeetings(ctx context.Context, filter repository.MeetingFilter) ([]*model.Meeting, error)
	UpdateMeeting(ctx context.Context, title string, m *model.Meeting) error
	SetAccepted(ctx context.Context, title string, accepted bool) error
	DeleteMeetings(ctx context.Context, title string) (int64, error)
	TitleExists(ctx context.Context, title string) (bool, error)
}

// HoursCache caches busy-hours results between mutations.
type HoursCache interface {
	GetHours(ctx context.Context, user string, start, end time.Time) (*model.BusyDuration, int64, error)
	SetHours(ctx context.Context, gen int64, user string, start, end time.Time, d model.BusyDuration) error
	InvalidateHours(ctx context.Context) error
}

// EventPublisher receives lifecycle events.
type EventPublisher interface {
	PublishAsync(event events.MeetingEvent)
}

// MeetingService handles meeting business logic.
type MeetingService struct {
	store     MeetingStore
	hours     HoursCache
	publisher EventPublisher
	metrics   metrics.Recorder
	logger    *slog.Logger
	emails    emailValidator
	now       func() time.Time
}

// NewMeetingService creates a new MeetingService.
// hours and publisher may be nil to disable caching and events.
func NewMeetingService(
	store MeetingStore,
	hours HoursCache,
	publisher EventPublisher,
	recorder metrics.Recorder,
	logger *slog.Logger,
	allowedDomains []string,
) *MeetingService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MeetingService{
		store:     store,
		hours:     hours,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger.With("component", "service.meeting"),
		emails:    newEmailValidator(allowedDomains),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListMeetingsInput selects meetings for a participant.
type ListMeetingsInput struct {
	User            string
	Title           string
	IncludeRejected bool
	StartsAtOrAfter *time.Time
	EndsAtOrBefore  *time.Time
}

// ListMeetings returns the participant's meetings ordered by start time.
// Rejected meetings are hidden unless IncludeRejected is set.
func (s *MeetingService) ListMeetings(ctx context.Context, input ListMeetingsInput) ([]*model.Meeting, error) {
	if input.User == "" {
		return nil, missingField("user")
	}
	if err := s.emails.validate(input.User); err != nil {
		return nil, err
	}

	meetings, err := s.store.FindMeetings(ctx, repository.MeetingFilter{
		Attendee:        input.User,
		Title:           input.Title,
		IncludeRejected: input.IncludeRejected,
		StartsAtOrAfter: input.StartsAtOrAfter,
		EndsAtOrBefore:  input.EndsAtOrBefore,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	if len(meetings) == 0 {
		return nil, ErrNoMeetings
	}
	return meetings, nil
}

// CreateMeetingInput defines input for creating a meeting.
type CreateMeetingInput struct {
	Title         string
	Description   string
	StartDatetime *time.Time
	EndDatetime   *time.Time
	Attendees     []string
}

// CreateMeeting stores a new accepted meeting. A nil input is an empty payload.
func (s *MeetingService) CreateMeeting(ctx context.Context, input *CreateMeetingInput) (*model.Meeting, error) {
	if input == nil {
		return nil, ErrInvalidPayload
	}
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if input.StartDatetime == nil {
		return nil, missingField("startDatetime")
	}
	if input.EndDatetime == nil {
		return nil, missingField("endDatetime")
	}
	if err := s.emails.validateAll(input.Attendees); err != nil {
		return nil, err
	}

	exists, err := s.store.TitleExists(ctx, input.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to check title: %w", err)
	}
	if exists {
		return nil, ErrTitleExists
	}

	now := s.now()
	meeting := &model.Meeting{
		ID:            ulid.Make().String(),
		Title:         input.Title,
		Description:   input.Description,
		StartDatetime: input.StartDatetime.UTC(),
		EndDatetime:   input.EndDatetime.UTC(),
		Attendees:     append([]string(nil), input.Attendees...),
		Accepted:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !meeting.HasValidDuration() {
		return nil, ErrInvalidDuration
	}

	if err := s.store.CreateMeeting(ctx, meeting); err != nil {
		if errors.Is(err, repository.ErrTitleExists) {
			return nil, ErrTitleExists
		}
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	s.metrics.IncMeetingCreated()
	s.afterMutation(ctx, events.NewMeetingEvent(events.TypeCreated, meeting.Title))

	return meeting, nil
}

// UpdateMeeting applies patch to the meeting titled title and returns the result.
func (s *MeetingService) UpdateMeeting(ctx context.Context, title string, patch model.MeetingPatch) (*model.Meeting, error) {
	if patch.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	existing, err := s.store.GetMeetingByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}

	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Attendees != nil {
		if err := s.emails.validateAll(patch.Attendees); err != nil {
			return nil, err
		}
	}

	updated := patch.ApplyTo(existing)
	if !updated.HasValidDuration() {
		return nil, ErrInvalidDuration
	}

	if updated.Title != title {
		exists, err := s.store.TitleExists(ctx, updated.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to check title: %w", err)
		}
		if exists {
			return nil, ErrTitleExists
		}
	}

	updated.UpdatedAt = s.now()
	if err := s.store.UpdateMeeting(ctx, title, updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrMeetingNotFound):
			return nil, ErrMeetingNotFound
		case errors.Is(err, repository.ErrTitleExists):
			return nil, ErrTitleExists
		}
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}

	s.metrics.IncMeetingUpdated()
	s.afterMutation(ctx, events.NewMeetingEvent(events.TypeUpdated, updated.Title))

	return updated, nil
}

// RespondToMeeting records an accept or reject for the meeting titled title.
func (s *MeetingService) RespondToMeeting(ctx context.Context, title string, accepted bool) error {
	if err := s.store.SetAccepted(ctx, title, accepted); err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return ErrMeetingNotFound
		}
		return fmt.Errorf("failed to respond to meeting: %w", err)
	}

	s.metrics.IncMeetingResponded(accepted)
	event := events.NewMeetingEvent(events.TypeResponded, title)
	event.Accepted = &accepted
	s.afterMutation(ctx, event)

	return nil
}

// DeleteMeetings removes the meeting titled title, or every meeting when title is empty.
func (s *MeetingService) DeleteMeetings(ctx context.Context, title string) (int64, error) {
	deleted, err := s.store.DeleteMeetings(ctx, title)
	if err != nil {
		return 0, fmt.Errorf("failed to delete meetings: %w", err)
	}
	if deleted == 0 {
		return 0, ErrNoMeetings
	}

	s.metrics.IncMeetingsDeleted(deleted)
	event := events.NewMeetingEvent(events.TypeDeleted, title)
	event.Count = deleted
	s.afterMutation(ctx, event)

	return deleted, nil
}

// HoursInput bounds a busy-hours query. Both window bounds are required.
type HoursInput struct {
	User        string
	WindowStart *time.Time
	WindowEnd   *time.Time
}

// GetMeetingHours totals the time the participant spends in accepted meetings
// overlapping the window.
func (s *MeetingService) GetMeetingHours(ctx context.Context, input HoursInput) (*model.BusyDuration, error) {
	if input.User == "" {
		return nil, missingField("user")
	}
	if err := s.emails.validate(input.User); err != nil {
		return nil, err
	}
	if input.WindowStart == nil {
		return nil, missingField("startDatetime")
	}
	if input.WindowEnd == nil {
		return nil, missingField("endDatetime")
	}
	start, end := input.WindowStart.UTC(), input.WindowEnd.UTC()
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}

	// Generation observed on a clean miss; the result is cached only then.
	var (
		gen      int64
		writable bool
	)
	if s.hours != nil {
		cached, g, err := s.hours.GetHours(ctx, input.User, start, end)
		if err == nil {
			s.metrics.IncHoursCacheHit()
			return cached, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			gen, writable = g, true
		} else {
			s.logger.Warn("hours cache read failed", "error", err)
		}
		s.metrics.IncHoursCacheMiss()
	}

	began := time.Now()
	meetings, err := s.store.FindMeetings(ctx, repository.MeetingFilter{
		Attendee:     input.User,
		OverlapStart: &start,
		OverlapEnd:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find meetings: %w", err)
	}
	if len(meetings) == 0 {
		return nil, ErrNoMeetings
	}

	result := busy.Compute(start, end, meetings)
	s.metrics.ObserveHoursDuration(time.Since(began))

	if writable {
		if err := s.hours.SetHours(ctx, gen, input.User, start, end, result); err != nil {
			s.logger.Warn("hours cache write failed", "error", err)
		}
	}

	return &result, nil
}

// ExportCalendar renders the meetings selected by input as an iCalendar document.
func (s *MeetingService) ExportCalendar(ctx context.Context, input ListMeetingsInput) ([]byte, error) {
	meetings, err := s.ListMeetings(ctx, input)
	if err != nil {
		return nil, err
	}

	data, err := calendar.Encode(meetings, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return data, nil
}

// afterMutation invalidates cached hours and publishes the event.
// Neither step can fail the request.
func (s *MeetingService) afterMutation(ctx context.Context, event events.MeetingEvent) {
	if s.hours != nil {
		if err := s.hours.InvalidateHours(ctx); err != nil {
			s.logger.Warn("hours cache invalidation failed", "error", err)
		}
	}
	s.publisher.PublishAsync(event)
}
