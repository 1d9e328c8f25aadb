package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a booking
type SessionStatus string

const (
	SessionPending     SessionStatus = "pending"
	SessionCancelled   SessionStatus = "cancelled"
	SessionCompleted   SessionStatus = "completed"
	SessionRescheduled SessionStatus = "rescheduled"
)

// IsTerminal reports whether no further transitions are possible
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCancelled || s == SessionCompleted
}

// IsCancellable reports whether the session may still be cancelled.
// pending and rescheduled are the only cancellable states.
func (s SessionStatus) IsCancellable() bool {
	return s == SessionPending || s == SessionRescheduled
}

// CanTransitionTo validates a state machine edge. A rescheduled session may
// be rescheduled again; cancelled and completed are terminal.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionPending:
		return next == SessionCancelled || next == SessionCompleted || next == SessionRescheduled
	case SessionRescheduled:
		return next == SessionCancelled || next == SessionCompleted || next == SessionRescheduled
	}
	return false
}

// ParticipantStatus is the booking state of a single participant
type ParticipantStatus string

const (
	ParticipantBooked    ParticipantStatus = "booked"
	ParticipantCancelled ParticipantStatus = "cancelled"
)

// Participant is one member of a session's ordered participant set.
// The creator is always present.
type Participant struct {
	UserID uuid.UUID         `json:"userId"`
	Status ParticipantStatus `json:"status"`
}

// Session is a committed (or historical) mentoring booking. Rows are never
// physically deleted; cancellation is a status change.
type Session struct {
	ID                    uuid.UUID     `json:"id"`
	OfferingID            uuid.UUID     `json:"offeringId"`
	MentorID              uuid.UUID     `json:"mentorId"`
	CreatorID             uuid.UUID     `json:"creatorId"`
	ScheduleStart         time.Time     `json:"scheduleStart"`
	ScheduleEnd           time.Time     `json:"scheduleEnd"`
	Status                SessionStatus `json:"status"`
	Participants          []Participant `json:"participants"`
	Capacity              int           `json:"capacity"`
	Topic                 string        `json:"topic"`
	MeetLink              string        `json:"meetLink"`
	RecordingURL          string        `json:"recordingUrl"`
	CancelledBy           *uuid.UUID    `json:"cancelledBy,omitempty"`
	CancelReason          string        `json:"cancelReason,omitempty"`
	RescheduleRequestedBy *uuid.UUID    `json:"rescheduleRequestedBy,omitempty"`
	RescheduleReason      string        `json:"rescheduleReason,omitempty"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}

// BookedCount returns the number of participants with status booked
func (s *Session) BookedCount() int {
	n := 0
	for _, p := range s.Participants {
		if p.Status == ParticipantBooked {
			n++
		}
	}
	return n
}

// HasParticipant reports whether the user is in the participant set
func (s *Session) HasParticipant(userID uuid.UUID) bool {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Overlaps is the open-interval overlap test between two sessions:
// a.start < b.end AND b.start < a.end
func (s *Session) Overlaps(start, end time.Time) bool {
	return s.ScheduleStart.Before(end) && start.Before(s.ScheduleEnd)
}

// CreateSessionRequest is the POST /sessions payload
type CreateSessionRequest struct {
	OfferingID   string   `json:"offeringId" binding:"required,uuid"`
	MentorID     string   `json:"mentorId" binding:"required,uuid"`
	Start        string   `json:"start" binding:"required"`
	End          string   `json:"end" binding:"required"`
	Participants []string `json:"participants" binding:"omitempty,dive,uuid"`
	Capacity     *int     `json:"capacity" binding:"omitempty,min=1"`
	Topic        string   `json:"topic" binding:"max=500"`
}

// UpdateSessionRequest is the PATCH /sessions/:id payload; nil fields are
// left untouched
type UpdateSessionRequest struct {
	Start        *string   `json:"start"`
	End          *string   `json:"end"`
	Participants *[]string `json:"participants" binding:"omitempty,dive,uuid"`
	Capacity     *int      `json:"capacity" binding:"omitempty,min=1"`
	Topic        *string   `json:"topic" binding:"omitempty,max=500"`
	MeetLink     *string   `json:"meetLink" binding:"omitempty,max=2000"`
}

// CancelSessionRequest is the DELETE /sessions/:id payload
type CancelSessionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RescheduleSessionRequest is the POST /sessions/:id/reschedule payload.
// The same record's time fields are updated in place; no new row is created.
type RescheduleSessionRequest struct {
	Start  string `json:"start" binding:"required"`
	End    string `json:"end" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
}

// AttachRecordingRequest is the POST /sessions/:id/recording payload
type AttachRecordingRequest struct {
	Data        string `json:"data" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// SessionListResponse wraps the sessions visible to an actor
type SessionListResponse struct {
	Sessions []*Session `json:"sessions"`
	Total    int        `json:"total"`
}

// SlotPreview is one candidate slot in a read-only availability preview
type SlotPreview struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// SlotPreviewResponse is the GET /offerings/:id/slots payload
type SlotPreviewResponse struct {
	Date  string        `json:"date"`
	Slots []SlotPreview `json:"slots"`
}
