package services_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockOfferingRepository is a mock implementation of OfferingRepositoryInterface
type MockOfferingRepository struct {
	mock.Mock
}

func (m *MockOfferingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offering, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offering), args.Error(1)
}

func (m *MockOfferingRepository) GetAvailability(ctx context.Context, offeringID uuid.UUID) (*models.Availability, error) {
	args := m.Called(ctx, offeringID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Availability), args.Error(1)
}

func (m *MockOfferingRepository) UpdateMentoringBlock(ctx context.Context, offeringID uuid.UUID, block models.MentoringBlock, editedBy uuid.UUID) error {
	args := m.Called(ctx, offeringID, block, editedBy)
	return args.Error(0)
}

func (m *MockOfferingRepository) UpdateAvailability(ctx context.Context, offeringID uuid.UUID, patch repository.AvailabilityPatch, editedBy uuid.UUID) (*models.Availability, error) {
	args := m.Called(ctx, offeringID, patch, editedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Availability), args.Error(1)
}

// MockBlackoutRepository is a mock implementation of BlackoutRepositoryInterface
type MockBlackoutRepository struct {
	mock.Mock
}

func (m *MockBlackoutRepository) Create(ctx context.Context, blackout *models.Blackout) error {
	args := m.Called(ctx, blackout)
	return args.Error(0)
}

func (m *MockBlackoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Blackout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Blackout), args.Error(1)
}

func (m *MockBlackoutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBlackoutRepository) ListForMentor(ctx context.Context, mentorID uuid.UUID, from, to string) ([]*models.Blackout, error) {
	args := m.Called(ctx, mentorID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Blackout), args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepositoryInterface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) ListForActor(ctx context.Context, actor models.Actor) ([]*models.Session, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockSessionRepository) HasConflict(ctx context.Context, mentorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, mentorID, start, end, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Update(ctx context.Context, session *models.Session, timeChanged bool) error {
	args := m.Called(ctx, session, timeChanged)
	return args.Error(0)
}

func (m *MockSessionRepository) UpdateStatus(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) SetRecordingURL(ctx context.Context, id uuid.UUID, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

// MockRosterRepository is a mock implementation of RosterRepositoryInterface
type MockRosterRepository struct {
	mock.Mock
}

func (m *MockRosterRepository) EnrolledStudentIDs(ctx context.Context, offeringID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, offeringID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRosterRepository) IsEnrolled(ctx context.Context, offeringID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, offeringID, userID)
	return args.Bool(0), args.Error(1)
}

// MockAvailabilityCache is a mock implementation of AvailabilityCacheInterface
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) Get(ctx context.Context, offeringID uuid.UUID) (*models.Availability, error) {
	args := m.Called(ctx, offeringID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Availability), args.Error(1)
}

func (m *MockAvailabilityCache) Invalidate(offeringID uuid.UUID) {
	m.Called(offeringID)
}

// MockNotifier records dispatched session events
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SessionEvent(event string, session *models.Session, recipients []uuid.UUID) {
	m.Called(event, session, recipients)
}

// MockStorageClient is a mock implementation of storage.Client
type MockStorageClient struct {
	mock.Mock
}

func (m *MockStorageClient) UploadRecording(ctx context.Context, data, key, contentType string) (string, error) {
	args := m.Called(ctx, data, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorageClient) ValidateRecordingType(contentType string) error {
	args := m.Called(contentType)
	return args.Error(0)
}

func (m *MockStorageClient) ValidateRecordingSize(data string) error {
	args := m.Called(data)
	return args.Error(0)
}
