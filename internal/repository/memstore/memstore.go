// Package memstore provides an in-memory meeting store with the same
// semantics as the PostgreSQL repository. Handler and service tests run
// against it.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meetingsapi/meetings/internal/model"
	"github.com/meetingsapi/meetings/internal/repository"
)

// Store is a mutex-guarded map of meetings keyed by title.
type Store struct {
	mu       sync.RWMutex
	meetings map[string]*model.Meeting
	err      error
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{meetings: make(map[string]*model.Meeting), now: time.Now}
}

// FailWith makes every subsequent operation return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Len returns the number of stored meetings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meetings)
}

func (s *Store) CreateMeeting(_ context.Context, m *model.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if _, ok := s.meetings[m.Title]; ok {
		return repository.ErrTitleExists
	}
	s.meetings[m.Title] = m.Clone()
	return nil
}

func (s *Store) GetMeetingByTitle(_ context.Context, title string) (*model.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.meetings[title]
	if !ok {
		return nil, repository.ErrMeetingNotFound
	}
	return m.Clone(), nil
}

// FindMeetings returns clones of matching meetings ordered by start time, then title.
func (s *Store) FindMeetings(_ context.Context, filter repository.MeetingFilter) ([]*model.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}

	var result []*model.Meeting
	for _, m := range s.meetings {
		if filter.Matches(m) {
			result = append(result, m.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDatetime.Equal(result[j].StartDatetime) {
			return result[i].StartDatetime.Before(result[j].StartDatetime)
		}
		return result[i].Title < result[j].Title
	})
	return result, nil
}

func (s *Store) UpdateMeeting(_ context.Context, title string, m *model.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	existing, ok := s.meetings[title]
	if !ok {
		return repository.ErrMeetingNotFound
	}
	if m.Title != title {
		if _, taken := s.meetings[m.Title]; taken {
			return repository.ErrTitleExists
		}
	}

	updated := m.Clone()
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	delete(s.meetings, title)
	s.meetings[updated.Title] = updated
	return nil
}

func (s *Store) SetAccepted(_ context.Context, title string, accepted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	m, ok := s.meetings[title]
	if !ok {
		return repository.ErrMeetingNotFound
	}
	m.Accepted = accepted
	m.UpdatedAt = s.now().UTC()
	return nil
}

// DeleteMeetings removes the meeting titled title, or all meetings when title is empty.
func (s *Store) DeleteMeetings(_ context.Context, title string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return 0, s.err
	}
	if title == "" {
		n := int64(len(s.meetings))
		s.meetings = make(map[string]*model.Meeting)
		return n, nil
	}
	if _, ok := s.meetings[title]; !ok {
		return 0, nil
	}
	delete(s.meetings, title)
	return 1, nil
}

func (s *Store) TitleExists(_ context.Context, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return false, s.err
	}
	_, ok := s.meetings[title]
	return ok, nil
}

// Ping satisfies the health checker interface.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
