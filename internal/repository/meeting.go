package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/meetingsapi/meetings/internal/model"
)

// Common errors for meeting repository operations.
var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrTitleExists     = errors.New("meeting title already exists")
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const meetingColumns = `id, title, description, start_datetime, end_datetime, attendees, accepted, created_at, updated_at`

// CreateMeeting inserts a new meeting.
// Returns ErrTitleExists if the title is already taken.
func (r *Repository) CreateMeeting(ctx context.Context, m *model.Meeting) error {
	query := `
		INSERT INTO meetings (` + meetingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.Title,
		m.Description,
		m.StartDatetime,
		m.EndDatetime,
		pq.Array(m.Attendees),
		m.Accepted,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTitleExists
		}
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	return nil
}

// GetMeetingByTitle retrieves a meeting by its title.
func (r *Repository) GetMeetingByTitle(ctx context.Context, title string) (*model.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE title = $1`

	m, err := scanMeeting(r.pool.QueryRow(ctx, query, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to get meeting by title: %w", err)
	}

	return m, nil
}

// FindMeetings returns meetings matching the filter ordered by start time.
func (r *Repository) FindMeetings(ctx context.Context, filter MeetingFilter) ([]*model.Meeting, error) {
	where, args := filter.whereClause()
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE ` + where +
		` ORDER BY start_datetime ASC, title ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*model.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meetings: %w", err)
	}

	return meetings, nil
}

// UpdateMeeting overwrites the mutable fields of the meeting currently titled title.
// m.Title may differ from title to rename the meeting.
func (r *Repository) UpdateMeeting(ctx context.Context, title string, m *model.Meeting) error {
	query := `
		UPDATE meetings
		SET title = $2, description = $3, start_datetime = $4, end_datetime = $5,
		    attendees = $6, accepted = $7, updated_at = $8
		WHERE title = $1
	`

	result, err := r.pool.Exec(ctx, query,
		title,
		m.Title,
		m.Description,
		m.StartDatetime,
		m.EndDatetime,
		pq.Array(m.Attendees),
		m.Accepted,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTitleExists
		}
		return fmt.Errorf("failed to update meeting: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMeetingNotFound
	}

	return nil
}

// SetAccepted records a response to the meeting titled title.
func (r *Repository) SetAccepted(ctx context.Context, title string, accepted bool) error {
	query := `UPDATE meetings SET accepted = $2, updated_at = NOW() WHERE title = $1`

	result, err := r.pool.Exec(ctx, query, title, accepted)
	if err != nil {
		return fmt.Errorf("failed to set meeting response: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMeetingNotFound
	}

	return nil
}

// DeleteMeetings physically deletes the meeting titled title, or every meeting
// when title is empty. It returns the number of deleted rows.
func (r *Repository) DeleteMeetings(ctx context.Context, title string) (int64, error) {
	query := `DELETE FROM meetings`
	args := []any{}
	if title != "" {
		query += ` WHERE title = $1`
		args = append(args, title)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete meetings: %w", err)
	}

	return result.RowsAffected(), nil
}

// TitleExists checks if a meeting with the title exists.
func (r *Repository) TitleExists(ctx context.Context, title string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM meetings WHERE title = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check title existence: %w", err)
	}

	return exists, nil
}

// scanMeeting scans a single row into a Meeting model.
func scanMeeting(row pgx.Row) (*model.Meeting, error) {
	var m model.Meeting
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.StartDatetime,
		&m.EndDatetime,
		pq.Array(&m.Attendees),
		&m.Accepted,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.StartDatetime = m.StartDatetime.UTC()
	m.EndDatetime = m.EndDatetime.UTC()
	return &m, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
