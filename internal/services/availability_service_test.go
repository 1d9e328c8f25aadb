package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/internal/schedule"
	"github.com/mentorbook/mentorbook-api/internal/services"
	apperrors "github.com/mentorbook/mentorbook-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type availabilityMocks struct {
	offerings *MockOfferingRepository
	blackouts *MockBlackoutRepository
	sessions  *MockSessionRepository
	roster    *MockRosterRepository
	cache     *MockAvailabilityCache
}

func newAvailabilityService() (services.AvailabilityServiceInterface, *availabilityMocks) {
	m := &availabilityMocks{
		offerings: new(MockOfferingRepository),
		blackouts: new(MockBlackoutRepository),
		sessions:  new(MockSessionRepository),
		roster:    new(MockRosterRepository),
		cache:     new(MockAvailabilityCache),
	}
	svc := services.NewAvailabilityService(
		m.offerings, m.blackouts, m.sessions, m.roster, m.cache,
		schedule.NewCalculator(24*time.Hour),
	)
	return svc, m
}

func TestAvailabilityService_GetAvailability_AccessMatrix(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	owner := mentorActor()
	enrolledStudent := studentActor()
	offering := &models.Offering{ID: uuid.New(), MentorID: owner.ID, Availability: openPolicy()}
	avail := offering.Availability

	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil)
	m.cache.On("Get", ctx, offering.ID).Return(&avail, nil)
	m.roster.On("IsEnrolled", ctx, offering.ID, enrolledStudent.ID).Return(true, nil)
	m.roster.On("IsEnrolled", ctx, offering.ID, mock.Anything).Return(false, nil)

	_, err := svc.GetAvailability(ctx, owner, offering.ID)
	assert.NoError(t, err)

	_, err = svc.GetAvailability(ctx, adminActor(), offering.ID)
	assert.NoError(t, err)

	_, err = svc.GetAvailability(ctx, enrolledStudent, offering.ID)
	assert.NoError(t, err)

	_, err = svc.GetAvailability(ctx, studentActor(), offering.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrAccessDenied))

	_, err = svc.GetAvailability(ctx, mentorActor(), offering.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrAccessDenied))
}

func TestAvailabilityService_GetAvailability_ShapesNilSlices(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	owner := mentorActor()
	offering := &models.Offering{ID: uuid.New(), MentorID: owner.ID}
	avail := models.Availability{MentoringBlock: models.MentoringBlock{Start: "09:00", End: "17:00"}}

	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil).Once()
	m.cache.On("Get", ctx, offering.ID).Return(&avail, nil).Once()

	resp, err := svc.GetAvailability(ctx, owner, offering.ID)
	require.NoError(t, err)
	assert.NotNil(t, resp.AllowedDays)
	assert.NotNil(t, resp.OpenDates)
	assert.NotNil(t, resp.ClosedDates)
}

func TestAvailabilityService_SetMentoringBlock(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	owner := mentorActor()
	offering := &models.Offering{ID: uuid.New(), MentorID: owner.ID}

	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil)
	m.offerings.On("UpdateMentoringBlock", ctx, offering.ID,
		models.MentoringBlock{Start: "10:00", End: "16:00"}, owner.ID).Return(nil).Once()
	m.cache.On("Invalidate", offering.ID).Return().Once()

	block, err := svc.SetMentoringBlock(ctx, owner, offering.ID, &models.UpdateMentoringBlockRequest{
		Start: "10:00", End: "16:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "10:00", block.Start)
	m.cache.AssertExpectations(t)
}

func TestAvailabilityService_SetMentoringBlock_InvalidBlock(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	owner := mentorActor()
	offering := &models.Offering{ID: uuid.New(), MentorID: owner.ID}
	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil)

	// end not after start
	_, err := svc.SetMentoringBlock(ctx, owner, offering.ID, &models.UpdateMentoringBlockRequest{
		Start: "16:00", End: "10:00",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))

	// not a clock time
	_, err = svc.SetMentoringBlock(ctx, owner, offering.ID, &models.UpdateMentoringBlockRequest{
		Start: "9am", End: "5pm",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))

	m.offerings.AssertNotCalled(t, "UpdateMentoringBlock")
}

func TestAvailabilityService_SetMentoringBlock_WriteAccess(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	offering := &models.Offering{ID: uuid.New(), MentorID: uuid.New()}
	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil)

	req := &models.UpdateMentoringBlockRequest{Start: "10:00", End: "16:00"}

	_, err := svc.SetMentoringBlock(ctx, mentorActor(), offering.ID, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrAccessDenied))

	_, err = svc.SetMentoringBlock(ctx, studentActor(), offering.ID, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrAccessDenied))
}

func TestAvailabilityService_UpdateAvailability(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	owner := mentorActor()
	offering := &models.Offering{ID: uuid.New(), MentorID: owner.ID}
	updated := openPolicy()

	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil).Once()
	m.offerings.On("UpdateAvailability", ctx, offering.ID, mock.Anything, owner.ID).
		Return(&updated, nil).Once()
	m.cache.On("Invalidate", offering.ID).Return().Once()

	days := []string{"Wed", "Fri"}
	open := []string{"2026-10-10"}
	resp, err := svc.UpdateAvailability(ctx, owner, offering.ID, &models.UpdateAvailabilityRequest{
		AllowedDays: &days,
		OpenDates:   &open,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wed", "Fri"}, resp.AllowedDays)
	m.offerings.AssertExpectations(t)
	m.cache.AssertExpectations(t)
}

func TestAvailabilityService_UpdateAvailability_BadInput(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	owner := mentorActor()
	offering := &models.Offering{ID: uuid.New(), MentorID: owner.ID}
	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil)

	badDays := []string{"Funday"}
	_, err := svc.UpdateAvailability(ctx, owner, offering.ID, &models.UpdateAvailabilityRequest{
		AllowedDays: &badDays,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))

	badDates := []string{"2026-13-40"}
	_, err = svc.UpdateAvailability(ctx, owner, offering.ID, &models.UpdateAvailabilityRequest{
		ClosedDates: &badDates,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))

	m.offerings.AssertNotCalled(t, "UpdateAvailability")
	m.cache.AssertNotCalled(t, "Invalidate")
}

func TestAvailabilityService_PreviewSlots(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	owner := mentorActor()
	offering := &models.Offering{ID: uuid.New(), MentorID: owner.ID}
	avail := models.Availability{
		MentoringBlock: models.MentoringBlock{Start: "09:00", End: "11:00"},
		AllowedDays:    []time.Weekday{time.Wednesday},
	}
	date := "2026-09-09" // a Wednesday

	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil).Once()
	m.cache.On("Get", ctx, offering.ID).Return(&avail, nil).Once()
	m.blackouts.On("ListForMentor", ctx, owner.ID, date, date).
		Return([]*models.Blackout{}, nil).Once()

	// 09:30-10:00 is already booked
	taken := time.Date(2026, 9, 9, 9, 30, 0, 0, time.UTC)
	m.sessions.On("HasConflict", ctx, owner.ID, taken, taken.Add(30*time.Minute), (*uuid.UUID)(nil)).
		Return(true, nil).Once()
	m.sessions.On("HasConflict", ctx, owner.ID, mock.Anything, mock.Anything, (*uuid.UUID)(nil)).
		Return(false, nil)

	resp, err := svc.PreviewSlots(ctx, owner, offering.ID, date)
	require.NoError(t, err)
	require.Len(t, resp.Slots, 4)
	assert.Equal(t, "09:00", resp.Slots[0].Start)
	assert.Equal(t, "10:30", resp.Slots[3].Start)

	assert.True(t, resp.Slots[0].Available)
	assert.False(t, resp.Slots[1].Available)
	assert.Equal(t, "slot_taken", resp.Slots[1].Reason)
	assert.True(t, resp.Slots[2].Available)
	assert.True(t, resp.Slots[3].Available)
}

func TestAvailabilityService_PreviewSlots_ClosedDay(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	owner := mentorActor()
	offering := &models.Offering{ID: uuid.New(), MentorID: owner.ID}
	avail := models.Availability{
		MentoringBlock: models.MentoringBlock{Start: "09:00", End: "10:00"},
		AllowedDays:    []time.Weekday{time.Wednesday},
		ClosedDates:    []string{"2026-09-09"},
	}
	date := "2026-09-09"

	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil).Once()
	m.cache.On("Get", ctx, offering.ID).Return(&avail, nil).Once()
	m.blackouts.On("ListForMentor", ctx, owner.ID, date, date).
		Return([]*models.Blackout{}, nil).Once()

	resp, err := svc.PreviewSlots(ctx, owner, offering.ID, date)
	require.NoError(t, err)
	require.Len(t, resp.Slots, 2)
	for _, slot := range resp.Slots {
		assert.False(t, slot.Available)
		assert.Equal(t, "weekday_not_allowed", slot.Reason)
	}
	m.sessions.AssertNotCalled(t, "HasConflict")
}

func TestAvailabilityService_PreviewSlots_BadDate(t *testing.T) {
	svc, m := newAvailabilityService()
	ctx := context.Background()

	owner := mentorActor()
	offering := &models.Offering{ID: uuid.New(), MentorID: owner.ID}
	m.offerings.On("GetByID", ctx, offering.ID).Return(offering, nil).Once()

	_, err := svc.PreviewSlots(ctx, owner, offering.ID, "tomorrow")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}
