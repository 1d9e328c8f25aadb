package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/models"
)

// AvailabilityPatch is a partial update to an offering's availability
// policy. Nil fields leave the corresponding set untouched.
type AvailabilityPatch struct {
	AllowedDays *[]time.Weekday
	OpenDates   *[]string
	ClosedDates *[]string
}

// OfferingRepositoryInterface defines offering and availability data access
type OfferingRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offering, error)
	GetAvailability(ctx context.Context, offeringID uuid.UUID) (*models.Availability, error)
	UpdateMentoringBlock(ctx context.Context, offeringID uuid.UUID, block models.MentoringBlock, editedBy uuid.UUID) error
	UpdateAvailability(ctx context.Context, offeringID uuid.UUID, patch AvailabilityPatch, editedBy uuid.UUID) (*models.Availability, error)
}

// BlackoutRepositoryInterface defines mentor blackout data access
type BlackoutRepositoryInterface interface {
	Create(ctx context.Context, blackout *models.Blackout) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Blackout, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForMentor(ctx context.Context, mentorID uuid.UUID, from, to string) ([]*models.Blackout, error)
}

// SessionRepositoryInterface defines session data access. Create and the
// time-changing updates run their conflict check and write inside a single
// transaction holding a per-mentor advisory lock, so the no-overlap
// invariant holds under concurrent writers.
type SessionRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListForActor(ctx context.Context, actor models.Actor) ([]*models.Session, error)
	HasConflict(ctx context.Context, mentorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session, timeChanged bool) error
	UpdateStatus(ctx context.Context, session *models.Session) error
	SetRecordingURL(ctx context.Context, id uuid.UUID, url string) error
}

// RosterRepositoryInterface is the roster-lookup collaborator: which
// students are enrolled in an offering
type RosterRepositoryInterface interface {
	EnrolledStudentIDs(ctx context.Context, offeringID uuid.UUID) ([]uuid.UUID, error)
	IsEnrolled(ctx context.Context, offeringID, userID uuid.UUID) (bool, error)
}
