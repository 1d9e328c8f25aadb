package models_test

import (
	"testing"

	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBlackout_SpanDays(t *testing.T) {
	b := &models.Blackout{StartDate: "2026-03-10", EndDate: "2026-03-10"}
	assert.Equal(t, 1, b.SpanDays())

	b = &models.Blackout{StartDate: "2026-03-10", EndDate: "2026-03-12"}
	assert.Equal(t, 3, b.SpanDays())

	b = &models.Blackout{StartDate: "2026-03-10", EndDate: "not-a-date"}
	assert.Equal(t, -1, b.SpanDays())
}

func TestBlackout_Overlaps(t *testing.T) {
	base := &models.Blackout{StartDate: "2026-03-10", EndDate: "2026-03-12"}

	tests := []struct {
		name  string
		other *models.Blackout
		want  bool
	}{
		{"identical range", &models.Blackout{StartDate: "2026-03-10", EndDate: "2026-03-12"}, true},
		{"touching end date", &models.Blackout{StartDate: "2026-03-12", EndDate: "2026-03-13"}, true},
		{"contained", &models.Blackout{StartDate: "2026-03-11", EndDate: "2026-03-11"}, true},
		{"before", &models.Blackout{StartDate: "2026-03-07", EndDate: "2026-03-09"}, false},
		{"after", &models.Blackout{StartDate: "2026-03-13", EndDate: "2026-03-14"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestBlackout_Covers(t *testing.T) {
	b := &models.Blackout{StartDate: "2026-03-10", EndDate: "2026-03-12"}
	assert.True(t, b.Covers("2026-03-10"))
	assert.True(t, b.Covers("2026-03-11"))
	assert.True(t, b.Covers("2026-03-12"))
	assert.False(t, b.Covers("2026-03-09"))
	assert.False(t, b.Covers("2026-03-13"))
}
