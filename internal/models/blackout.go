package models

import (
	"time"

	"github.com/google/uuid"
)

// Blackout is a short mentor-wide date range during which no sessions may
// be booked, regardless of offering policy. Ranges are inclusive and
// immutable once created (delete and recreate to change).
type Blackout struct {
	ID        uuid.UUID `json:"id"`
	MentorID  uuid.UUID `json:"mentorId"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// SpanDays returns the inclusive number of calendar days covered by the
// range, or -1 if either bound is malformed.
func (b *Blackout) SpanDays() int {
	start, err := ParseISODate(b.StartDate)
	if err != nil {
		return -1
	}
	end, err := ParseISODate(b.EndDate)
	if err != nil {
		return -1
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Overlaps reports whether two inclusive date ranges intersect:
// existing.start <= new.end AND new.start <= existing.end
func (b *Blackout) Overlaps(other *Blackout) bool {
	return b.StartDate <= other.EndDate && other.StartDate <= b.EndDate
}

// Covers reports whether the range contains the given ISO date
func (b *Blackout) Covers(date string) bool {
	return b.StartDate <= date && date <= b.EndDate
}

// CreateBlackoutRequest is the POST /mentor-blackouts payload
type CreateBlackoutRequest struct {
	MentorID  string `json:"mentorId" binding:"required,uuid"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	Reason    string `json:"reason" binding:"max=500"`
}

// BlackoutListResponse wraps a mentor's blackouts ordered by start date
type BlackoutListResponse struct {
	Blackouts []*Blackout `json:"blackouts"`
	Total     int         `json:"total"`
}
