package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/mentorbook/mentorbook-api/pkg/errors"
)

// ISODateLayout is the calendar date format used throughout the API.
// Dates are naive local calendar values; ISO strings compare correctly
// with plain string ordering.
const ISODateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ParseISODate parses an ISO calendar date
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInputError("date", fmt.Sprintf("%q is not a valid ISO date", s))
	}
	return t, nil
}

// MentoringBlock is the single daily clock-time window in which an
// offering's sessions may be scheduled. Times are 24-hour HH:mm.
type MentoringBlock struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate checks that both bounds are well-formed HH:mm and end > start
func (b MentoringBlock) Validate() error {
	if !clockPattern.MatchString(b.Start) {
		return apperrors.InvalidInputError("mentoringBlock.start", fmt.Sprintf("%q is not a valid HH:mm time", b.Start))
	}
	if !clockPattern.MatchString(b.End) {
		return apperrors.InvalidInputError("mentoringBlock.end", fmt.Sprintf("%q is not a valid HH:mm time", b.End))
	}
	if ClockMinutes(b.End) <= ClockMinutes(b.Start) {
		return apperrors.InvalidInputError("mentoringBlock", "end must be after start")
	}
	return nil
}

// ClockMinutes converts a well-formed HH:mm string to minutes since midnight.
// Returns -1 for malformed input.
func ClockMinutes(clock string) int {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return -1
	}
	return h*60 + m
}

// DateExceptionKind is the per-date override result
type DateExceptionKind string

const (
	DateExceptionOpen   DateExceptionKind = "open"
	DateExceptionClosed DateExceptionKind = "closed"
	DateExceptionNone   DateExceptionKind = "none"
)

// AuditEntry records who created a date exception and when. Entries are
// sticky: the first writer for a date is preserved across later edits.
type AuditEntry struct {
	Action DateExceptionKind `json:"action"`
	By     uuid.UUID         `json:"by"`
	At     time.Time         `json:"at"`
}

// AvailabilityMeta is the audit trail of an offering's availability policy.
// Audit-only: it is never consulted when validating a booking.
type AvailabilityMeta struct {
	Dates        map[string]AuditEntry `json:"dates"`
	LastEditedAt time.Time             `json:"lastEditedAt"`
}

// Availability is an offering's bookable-time policy: the daily mentoring
// block, allowed weekdays, and per-date open/close overrides.
type Availability struct {
	MentoringBlock MentoringBlock   `json:"mentoringBlock"`
	AllowedDays    []time.Weekday   `json:"allowedDays"`
	OpenDates      []string         `json:"openDates"`
	ClosedDates    []string         `json:"closedDates"`
	Meta           AvailabilityMeta `json:"_meta"`
}

// DateException reports the override status of a calendar date.
// closedDates wins if a date appears in both sets; the sets should be
// disjoint by construction but closed-wins is the documented tie-break.
func (a *Availability) DateException(date string) DateExceptionKind {
	for _, d := range a.ClosedDates {
		if d == date {
			return DateExceptionClosed
		}
	}
	for _, d := range a.OpenDates {
		if d == date {
			return DateExceptionOpen
		}
	}
	return DateExceptionNone
}

// AllowsWeekday reports whether the weekday is in the allowed set
func (a *Availability) AllowsWeekday(day time.Weekday) bool {
	for _, d := range a.AllowedDays {
		if d == day {
			return true
		}
	}
	return false
}

// Offering is a course section taught by one mentor; the scope for a
// mentoring-block policy.
type Offering struct {
	ID           uuid.UUID    `json:"id"`
	MentorID     uuid.UUID    `json:"mentorId"`
	TermID       string       `json:"termId"`
	Title        string       `json:"title"`
	ScheduleCode string       `json:"scheduleCode"`
	Availability Availability `json:"availability"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// UpdateMentoringBlockRequest is the PATCH /offerings/:id/mentoring payload
type UpdateMentoringBlockRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// UpdateAvailabilityRequest is the PATCH /offerings/:id/availability payload.
// Nil slices leave the corresponding set untouched; non-nil slices replace it.
type UpdateAvailabilityRequest struct {
	AllowedDays *[]string `json:"allowedDays"`
	OpenDates   *[]string `json:"openDates"`
	ClosedDates *[]string `json:"closedDates"`
}

// AvailabilityResponse is the shaped availability snapshot returned to clients
type AvailabilityResponse struct {
	MentoringBlock MentoringBlock `json:"mentoringBlock"`
	AllowedDays    []string       `json:"allowedDays"`
	OpenDates      []string       `json:"openDates"`
	ClosedDates    []string       `json:"closedDates"`
}

// WeekdayNames converts weekdays to their canonical token names
func WeekdayNames(days []time.Weekday) []string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String()[:3])
	}
	return names
}

// ParseWeekdayName converts a weekday token ("Wed", "Wednesday") to a weekday
func ParseWeekdayName(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if name == d.String() || name == d.String()[:3] {
			return d, nil
		}
	}
	return 0, apperrors.InvalidInputError("allowedDays", fmt.Sprintf("%q is not a weekday", name))
}

// ShapeAvailability converts the internal policy to its response form
func ShapeAvailability(a *Availability) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		MentoringBlock: a.MentoringBlock,
		AllowedDays:    WeekdayNames(a.AllowedDays),
		OpenDates:      a.OpenDates,
		ClosedDates:    a.ClosedDates,
	}
	if resp.OpenDates == nil {
		resp.OpenDates = []string{}
	}
	if resp.ClosedDates == nil {
		resp.ClosedDates = []string{}
	}
	return resp
}
