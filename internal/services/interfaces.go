package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/models"
)

// AvailabilityServiceInterface defines availability policy operations
type AvailabilityServiceInterface interface {
	GetAvailability(ctx context.Context, actor models.Actor, offeringID uuid.UUID) (*models.AvailabilityResponse, error)
	SetMentoringBlock(ctx context.Context, actor models.Actor, offeringID uuid.UUID, req *models.UpdateMentoringBlockRequest) (*models.MentoringBlock, error)
	UpdateAvailability(ctx context.Context, actor models.Actor, offeringID uuid.UUID, req *models.UpdateAvailabilityRequest) (*models.AvailabilityResponse, error)
	PreviewSlots(ctx context.Context, actor models.Actor, offeringID uuid.UUID, date string) (*models.SlotPreviewResponse, error)
}

// BlackoutServiceInterface defines mentor blackout operations
type BlackoutServiceInterface interface {
	Create(ctx context.Context, actor models.Actor, req *models.CreateBlackoutRequest) (*models.Blackout, error)
	Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error
	List(ctx context.Context, actor models.Actor, mentorID uuid.UUID, from, to string) (*models.BlackoutListResponse, error)
}

// BookingServiceInterface defines the session booking lifecycle
type BookingServiceInterface interface {
	Create(ctx context.Context, actor models.Actor, req *models.CreateSessionRequest) (*models.Session, error)
	Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Session, error)
	List(ctx context.Context, actor models.Actor) (*models.SessionListResponse, error)
	Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.UpdateSessionRequest) (*models.Session, error)
	Cancel(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.Session, error)
	MarkCompleted(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Session, error)
	Reschedule(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.RescheduleSessionRequest) (*models.Session, error)
	AttachRecording(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.AttachRecordingRequest) (*models.Session, error)
}
