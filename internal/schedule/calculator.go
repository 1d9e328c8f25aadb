package schedule

import (
	"fmt"
	"time"

	"github.com/mentorbook/mentorbook-api/internal/models"
	apperrors "github.com/mentorbook/mentorbook-api/pkg/errors"
)

// Calculator decides whether a proposed session time is legal against an
// offering's availability policy and the mentor's blackouts. It is pure:
// given the same inputs it always returns the same answer, which keeps the
// booking rules deterministically unit-testable.
type Calculator struct {
	leadTime time.Duration
}

// The four rejection reasons, surfaced verbatim to the caller. Each wraps
// the matching pkg/errors sentinel so handlers can map to HTTP codes with
// errors.Is.
var (
	ErrLeadTimeViolation     = fmt.Errorf("session start is inside the minimum-notice window: %w", apperrors.ErrLeadTime)
	ErrOutsideMentoringBlock = fmt.Errorf("session is outside the offering's mentoring block: %w", apperrors.ErrInvalidInput)
	ErrWeekdayNotAllowed     = fmt.Errorf("offering is not bookable on this date: %w", apperrors.ErrInvalidInput)
	ErrMentorBlackedOut      = fmt.Errorf("mentor is blacked out on this date: %w", apperrors.ErrInvalidInput)
)

// NewCalculator creates a calculator with the given minimum notice
func NewCalculator(leadTime time.Duration) *Calculator {
	return &Calculator{leadTime: leadTime}
}

// LeadTime returns the configured minimum notice
func (c *Calculator) LeadTime() time.Duration {
	return c.leadTime
}

// Validate checks a proposed [start, end) interval against the policy.
// Checks run in order: lead time, block containment, weekday/override,
// blackout; the first failure is returned.
func (c *Calculator) Validate(policy *models.Availability, blackouts []*models.Blackout, start, end, now time.Time) error {
	if err := c.checkLeadTime(start, now); err != nil {
		return err
	}
	return c.validateSlot(policy, blackouts, start, end)
}

// ValidatePreview runs the same checks minus the lead-time rule. Used for
// read-only availability previews, which may show slots inside the notice
// window.
func (c *Calculator) ValidatePreview(policy *models.Availability, blackouts []*models.Blackout, start, end time.Time) error {
	return c.validateSlot(policy, blackouts, start, end)
}

// CheckCancelWindow applies the cancellation window, which mirrors the
// booking lead time: a session may only be cancelled while its start is at
// least the lead time away.
func (c *Calculator) CheckCancelWindow(sessionStart, now time.Time) error {
	return c.checkLeadTime(sessionStart, now)
}

func (c *Calculator) checkLeadTime(start, now time.Time) error {
	if start.Sub(now) < c.leadTime {
		return ErrLeadTimeViolation
	}
	return nil
}

func (c *Calculator) validateSlot(policy *models.Availability, blackouts []*models.Blackout, start, end time.Time) error {
	if !end.After(start) {
		return apperrors.InvalidInputError("end", "must be after start")
	}

	// A session is a single discrete interval inside one day's block
	date := start.Format(models.ISODateLayout)
	if end.Format(models.ISODateLayout) != date {
		return ErrOutsideMentoringBlock
	}

	blockStart := models.ClockMinutes(policy.MentoringBlock.Start)
	blockEnd := models.ClockMinutes(policy.MentoringBlock.End)
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	if startMin < blockStart || endMin > blockEnd {
		return ErrOutsideMentoringBlock
	}

	// Date overrides supersede the weekday rule for that date only;
	// closed wins over open when a date appears in both sets.
	switch policy.DateException(date) {
	case models.DateExceptionClosed:
		return ErrWeekdayNotAllowed
	case models.DateExceptionNone:
		if !policy.AllowsWeekday(start.Weekday()) {
			return ErrWeekdayNotAllowed
		}
	}

	for _, b := range blackouts {
		if b.Covers(date) {
			return ErrMentorBlackedOut
		}
	}

	return nil
}

// RejectionReason maps a calculator error to its stable reason code for
// metrics and client-facing responses.
func RejectionReason(err error) string {
	switch {
	case apperrors.Is(err, ErrLeadTimeViolation):
		return "lead_time_violation"
	case apperrors.Is(err, ErrOutsideMentoringBlock):
		return "outside_mentoring_block"
	case apperrors.Is(err, ErrWeekdayNotAllowed):
		return "weekday_not_allowed"
	case apperrors.Is(err, ErrMentorBlackedOut):
		return "mentor_blacked_out"
	}
	return "invalid"
}
