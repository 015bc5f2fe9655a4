package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meetingsapi/meetings/internal/calendar"
	"github.com/meetingsapi/meetings/internal/handler/dto"
	"github.com/meetingsapi/meetings/internal/middleware"
	"github.com/meetingsapi/meetings/internal/model"
	"github.com/meetingsapi/meetings/internal/service"
)

// Response messages.
const (
	msgCreated         = "Meeting has been created"
	msgUpdated         = "Meeting has been updated"
	msgDeleted         = "Meeting deleted successfully"
	msgAccepted        = "Meeting request has been accepted"
	msgRejected        = "Meeting request has been rejected"
	msgNoMeetings      = "No meetings found"
	msgInvalidPayload  = "Invalid Payload"
	msgNothingToUpdate = "Nothing to update"
	msgInvalidDuration = "Invalid duration for meeting"
	tipInvalidDuration = "End datetime should be greater than start datetime"
)

// MeetingHandler handles HTTP requests for meeting operations.
type MeetingHandler struct {
	svc    *service.MeetingService
	logger *slog.Logger
}

// NewMeetingHandler creates a new MeetingHandler.
func NewMeetingHandler(svc *service.MeetingService, logger *slog.Logger) *MeetingHandler {
	return &MeetingHandler{
		svc:    svc,
		logger: logger,
	}
}

// Routes registers the meeting endpoints on r. Static segments are
// registered before {title} and take precedence over it.
func (h *MeetingHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/", h.DeleteAll)

	r.Get("/meeting_hours", h.Hours)
	r.Get("/calendar.ics", h.Calendar)

	r.Get("/{title}", h.Get)
	r.Put("/{title}", h.Update)
	r.Delete("/{title}", h.Delete)
	r.Patch("/{title}/respond", h.Respond)
}

// List handles GET /meetings.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

// Get handles GET /meetings/{title}.
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, titleParam(r))
}

func (h *MeetingHandler) list(w http.ResponseWriter, r *http.Request, title string) {
	input, err := listInput(r, title)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meetings, err := h.svc.ListMeetings(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err, title)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToMeetingListResponse(meetings))
}

// Create handles POST /meetings.
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMeetingRequest
	empty, err := decodeBody(r, &req)
	if err != nil {
		h.writeBodyError(w, err)
		return
	}

	var input *service.CreateMeetingInput
	if !empty {
		start, err := parseOptionalTime("startDatetime", req.StartDatetime)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		end, err := parseOptionalTime("endDatetime", req.EndDatetime)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		input = &service.CreateMeetingInput{
			Title:         req.Title,
			Description:   req.Description,
			StartDatetime: start,
			EndDatetime:   end,
			Attendees:     req.Attendees,
		}
	}

	meeting, err := h.svc.CreateMeeting(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err, req.Title)
		return
	}

	h.logger.Info("meeting_created",
		"meeting_id", meeting.ID,
		"title", meeting.Title,
		"attendees", len(meeting.Attendees),
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msgCreated})
}

// Update handles PUT /meetings/{title}.
func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	title := titleParam(r)

	var req dto.UpdateMeetingRequest
	if _, err := decodeBody(r, &req); err != nil {
		h.writeBodyError(w, err)
		return
	}

	patch := model.MeetingPatch{
		Title:       req.Title,
		Description: req.Description,
		Attendees:   req.Attendees,
	}
	var err error
	if req.StartDatetime != nil {
		if patch.StartDatetime, err = parseRequiredTime("startDatetime", *req.StartDatetime); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.EndDatetime != nil {
		if patch.EndDatetime, err = parseRequiredTime("endDatetime", *req.EndDatetime); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	meeting, err := h.svc.UpdateMeeting(r.Context(), title, patch)
	if err != nil {
		if errors.Is(err, service.ErrTitleExists) && patch.Title != nil {
			title = *patch.Title
		}
		h.handleServiceError(w, r, err, title)
		return
	}

	h.logger.Info("meeting_updated", "meeting_id", meeting.ID, "title", meeting.Title)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msgUpdated})
}

// Respond handles PATCH /meetings/{title}/respond?accept=<bool>.
func (h *MeetingHandler) Respond(w http.ResponseWriter, r *http.Request) {
	title := titleParam(r)

	raw := r.URL.Query().Get("accept")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "missing required field: accept")
		return
	}
	accepted, err := parseBool(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid accept: %q is not a boolean", raw))
		return
	}

	if err := h.svc.RespondToMeeting(r.Context(), title, accepted); err != nil {
		h.handleServiceError(w, r, err, title)
		return
	}

	h.logger.Info("meeting_responded", "title", title, "accepted", accepted)

	msg := msgRejected
	if accepted {
		msg = msgAccepted
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msg})
}

// DeleteAll handles DELETE /meetings.
func (h *MeetingHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "")
}

// Delete handles DELETE /meetings/{title}.
func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, titleParam(r))
}

func (h *MeetingHandler) delete(w http.ResponseWriter, r *http.Request, title string) {
	deleted, err := h.svc.DeleteMeetings(r.Context(), title)
	if err != nil {
		h.handleServiceError(w, r, err, title)
		return
	}

	h.logger.Info("meetings_deleted", "title", title, "count", deleted)

	writeJSON(w, http.StatusOK, dto.ResultResponse{Result: msgDeleted})
}

// Hours handles GET /meetings/meeting_hours.
func (h *MeetingHandler) Hours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := parseOptionalTime("startDatetime", q.Get("startDatetime"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseOptionalTime("endDatetime", q.Get("endDatetime"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.GetMeetingHours(r.Context(), service.HoursInput{
		User:        q.Get("user"),
		WindowStart: start,
		WindowEnd:   end,
	})
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Calendar handles GET /meetings/calendar.ics.
func (h *MeetingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	input, err := listInput(r, "")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.svc.ExportCalendar(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", calendar.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="meetings.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleServiceError maps service errors to HTTP responses.
// title names the meeting in not-found and conflict messages.
func (h *MeetingHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, title string) {
	switch {
	case errors.Is(err, service.ErrNoMeetings):
		h.writeError(w, http.StatusNotFound, msgNoMeetings)
	case errors.Is(err, service.ErrMeetingNotFound):
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("meeting with title: %s does not exist", title))
	case errors.Is(err, service.ErrTitleExists):
		h.writeError(w, http.StatusConflict, fmt.Sprintf("meeting with title: %s already exists", title))
	case errors.Is(err, service.ErrInvalidDuration):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{ErrorMsg: msgInvalidDuration, Tip: tipInvalidDuration})
	case errors.Is(err, service.ErrInvalidPayload):
		h.writeError(w, http.StatusNotFound, msgInvalidPayload)
	case errors.Is(err, service.ErrNothingToUpdate):
		h.writeError(w, http.StatusOK, msgNothingToUpdate)
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidTitle),
		errors.Is(err, service.ErrInvalidWindow):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal_error",
			"request_id", middleware.GetRequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, dto.ExceptionResponse{Exception: err.Error()})
	}
}

// writeError writes an error response.
func (h *MeetingHandler) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{ErrorMsg: message})
}

func (h *MeetingHandler) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	h.writeError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
}

// decodeBody decodes a JSON object into dst. empty reports a missing body,
// a JSON null or an object without members.
func decodeBody(r *http.Request, dst any) (empty bool, err error) {
	if r.Body == nil {
		return true, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return false, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return true, nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return false, err
	}
	if len(members) == 0 {
		return true, nil
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return false, err
	}
	return false, nil
}

// listInput reads the participant filter shared by list, get and calendar.
func listInput(r *http.Request, title string) (service.ListMeetingsInput, error) {
	q := r.URL.Query()

	includeRejected := false
	if raw := q.Get("include_rejected"); raw != "" {
		v, err := parseBool(raw)
		if err != nil {
			return service.ListMeetingsInput{}, fmt.Errorf("invalid include_rejected: %q is not a boolean", raw)
		}
		includeRejected = v
	}

	start, err := parseOptionalTime("startDatetime", q.Get("startDatetime"))
	if err != nil {
		return service.ListMeetingsInput{}, err
	}
	end, err := parseOptionalTime("endDatetime", q.Get("endDatetime"))
	if err != nil {
		return service.ListMeetingsInput{}, err
	}

	return service.ListMeetingsInput{
		User:            q.Get("user"),
		Title:           title,
		IncludeRejected: includeRejected,
		StartsAtOrAfter: start,
		EndsAtOrBefore:  end,
	}, nil
}

// titleParam returns the decoded {title} path segment. chi matches on
// RawPath when it is set, so only then is the segment still escaped.
func titleParam(r *http.Request) string {
	param := chi.URLParam(r, "title")
	if r.URL.RawPath == "" {
		return param
	}
	if title, err := url.PathUnescape(param); err == nil {
		return title
	}
	return param
}

// parseOptionalTime returns nil for an empty value.
func parseOptionalTime(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	return parseRequiredTime(field, value)
}

func parseRequiredTime(field, value string) (*time.Time, error) {
	t, err := model.ParseDateTime(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected yyyy-mm-ddThh:mm:ss, got %q", field, value)
	}
	return &t, nil
}

// parseBool accepts true/false, 1/0, on/off and yes/no in any case.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on", "yes":
		return true, nil
	case "false", "0", "off", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", value)
}
