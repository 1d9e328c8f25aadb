package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/middleware"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockBookingService is a mock implementation of BookingServiceInterface
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, actor models.Actor, req *models.CreateSessionRequest) (*models.Session, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockBookingService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockBookingService) List(ctx context.Context, actor models.Actor) (*models.SessionListResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionListResponse), args.Error(1)
}

func (m *MockBookingService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.UpdateSessionRequest) (*models.Session, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockBookingService) Cancel(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.Session, error) {
	args := m.Called(ctx, actor, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockBookingService) MarkCompleted(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockBookingService) Reschedule(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.RescheduleSessionRequest) (*models.Session, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockBookingService) AttachRecording(ctx context.Context, actor models.Actor, id uuid.UUID, req *models.AttachRecordingRequest) (*models.Session, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

// MockBlackoutService is a mock implementation of BlackoutServiceInterface
type MockBlackoutService struct {
	mock.Mock
}

func (m *MockBlackoutService) Create(ctx context.Context, actor models.Actor, req *models.CreateBlackoutRequest) (*models.Blackout, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Blackout), args.Error(1)
}

func (m *MockBlackoutService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockBlackoutService) List(ctx context.Context, actor models.Actor, mentorID uuid.UUID, from, to string) (*models.BlackoutListResponse, error) {
	args := m.Called(ctx, actor, mentorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlackoutListResponse), args.Error(1)
}

// withActor seeds the request context the way the auth middleware does
func withActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorContextKey, actor)
	}
}
