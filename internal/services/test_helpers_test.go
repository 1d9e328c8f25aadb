package services_test

import (
	"time"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/config"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Booking: config.BookingConfig{
			LeadTimeHours:   24,
			MaxBlackoutDays: 3,
		},
	}
}

func studentActor() models.Actor {
	return models.Actor{ID: uuid.New(), Email: "student@example.com", Name: "Student", Role: models.RoleStudent}
}

func mentorActor() models.Actor {
	return models.Actor{ID: uuid.New(), Email: "mentor@example.com", Name: "Mentor", Role: models.RoleMentor}
}

func adminActor() models.Actor {
	return models.Actor{ID: uuid.New(), Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
}

// nextAllowedSlot returns a Wednesday 10:00-11:00 UTC slot at least a week
// in the future, safely past the booking lead time
func nextAllowedSlot() (time.Time, time.Time) {
	day := time.Now().UTC().AddDate(0, 0, 7)
	for day.Weekday() != time.Wednesday {
		day = day.AddDate(0, 0, 1)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)
	return start, start.Add(time.Hour)
}

func openPolicy() models.Availability {
	return models.Availability{
		MentoringBlock: models.MentoringBlock{Start: "09:00", End: "17:00"},
		AllowedDays:    []time.Weekday{time.Wednesday, time.Friday},
	}
}
