// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"errors"

	"github.com/meetingsapi/meetings/internal/model"
)

// AttendeeList decodes either a JSON array of addresses or a single address string.
type AttendeeList []string

// UnmarshalJSON implements json.Unmarshaler.
func (a *AttendeeList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		*a = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return errors.New("attendees must be a string or an array of strings")
	}
	if single == "" {
		*a = []string{}
		return nil
	}
	*a = []string{single}
	return nil
}

// CreateMeetingRequest represents the request body for creating a meeting.
// Timestamps stay as strings so the handler can report parse errors per field.
type CreateMeetingRequest struct {
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	StartDatetime string       `json:"startDatetime"`
	EndDatetime   string       `json:"endDatetime"`
	Attendees     AttendeeList `json:"attendees"`
}

// UpdateMeetingRequest represents the request body for updating a meeting.
// Absent fields are left unchanged.
type UpdateMeetingRequest struct {
	Title         *string      `json:"title,omitempty"`
	Description   *string      `json:"description,omitempty"`
	StartDatetime *string      `json:"startDatetime,omitempty"`
	EndDatetime   *string      `json:"endDatetime,omitempty"`
	Attendees     AttendeeList `json:"attendees,omitempty"`
}

// MeetingResponse represents a meeting in API responses.
type MeetingResponse struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	StartDatetime string   `json:"startDatetime"`
	EndDatetime   string   `json:"endDatetime"`
	Attendees     []string `json:"attendees"`
	Accepted      bool     `json:"accepted"`
}

// MeetingListResponse wraps a list of meetings.
type MeetingListResponse struct {
	Result []MeetingResponse `json:"result"`
}

// MessageResponse carries a confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ResultResponse carries a confirmation in the result field.
type ResultResponse struct {
	Result string `json:"result"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	ErrorMsg string `json:"errorMsg"`
	Tip      string `json:"tip,omitempty"`
}

// ExceptionResponse reports an unexpected failure.
type ExceptionResponse struct {
	Exception string `json:"exception"`
}

// ToMeetingResponse converts a Meeting model to MeetingResponse DTO.
func ToMeetingResponse(m *model.Meeting) MeetingResponse {
	attendees := m.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return MeetingResponse{
		Title:         m.Title,
		Description:   m.Description,
		StartDatetime: model.FormatDateTime(m.StartDatetime),
		EndDatetime:   model.FormatDateTime(m.EndDatetime),
		Attendees:     attendees,
		Accepted:      m.Accepted,
	}
}

// ToMeetingListResponse converts meetings to the list envelope.
func ToMeetingListResponse(meetings []*model.Meeting) MeetingListResponse {
	result := make([]MeetingResponse, 0, len(meetings))
	for _, m := range meetings {
		result = append(result, ToMeetingResponse(m))
	}
	return MeetingListResponse{Result: result}
}
