package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{
			name: "development environment",
			config: &Config{
				Server: ServerConfig{AppEnv: "development"},
			},
			expected: true,
		},
		{
			name: "production environment",
			config: &Config{
				Server: ServerConfig{AppEnv: "production"},
			},
			expected: false,
		},
		{
			name: "staging environment",
			config: &Config{
				Server: ServerConfig{AppEnv: "staging"},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.IsDevelopment()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{
			name: "production environment",
			config: &Config{
				Server: ServerConfig{AppEnv: "production"},
			},
			expected: true,
		},
		{
			name: "development environment",
			config: &Config{
				Server: ServerConfig{AppEnv: "development"},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.IsProduction()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config",
			config: &Config{
				Database: DatabaseConfig{URL: "postgres://localhost:5432/mentorbook"},
				Booking:  BookingConfig{LeadTimeHours: 24, MaxBlackoutDays: 3},
			},
			expectError: false,
		},
		{
			name: "missing database URL",
			config: &Config{
				Booking: BookingConfig{LeadTimeHours: 24, MaxBlackoutDays: 3},
			},
			expectError: true,
			errorMsg:    "DATABASE_URL is required",
		},
		{
			name: "negative lead time",
			config: &Config{
				Database: DatabaseConfig{URL: "postgres://localhost:5432/mentorbook"},
				Booking:  BookingConfig{LeadTimeHours: -1, MaxBlackoutDays: 3},
			},
			expectError: true,
			errorMsg:    "BOOKING_LEAD_TIME_HOURS must not be negative",
		},
		{
			name: "zero blackout span",
			config: &Config{
				Database: DatabaseConfig{URL: "postgres://localhost:5432/mentorbook"},
				Booking:  BookingConfig{LeadTimeHours: 24, MaxBlackoutDays: 0},
			},
			expectError: true,
			errorMsg:    "BLACKOUT_MAX_DAYS must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	// Clean environment
	os.Clearenv()

	// Set only required fields
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/mentorbook")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	// Check defaults
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "production", cfg.Server.AppEnv)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 24, cfg.Booking.LeadTimeHours)
	assert.Equal(t, 3, cfg.Booking.MaxBlackoutDays)
	assert.Equal(t, 300, cfg.Cache.AvailabilityTTLSeconds)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	// Clean environment
	os.Clearenv()

	// Set environment variables
	os.Setenv("PORT", "9000")
	os.Setenv("GIN_MODE", "debug")
	os.Setenv("APP_ENV", "development")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("DATABASE_URL", "postgres://db.internal:5432/mentorbook")
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("BOOKING_LEAD_TIME_HOURS", "48")
	os.Setenv("BLACKOUT_MAX_DAYS", "5")
	os.Setenv("NOTIFY_WEBHOOK_URL", "https://hooks.example.com/sessions")
	os.Setenv("STORAGE_BUCKET_NAME", "recordings")
	os.Setenv("ALLOWED_CORS_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	// Verify values from environment
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, "development", cfg.Server.AppEnv)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "postgres://db.internal:5432/mentorbook", cfg.Database.URL)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 48, cfg.Booking.LeadTimeHours)
	assert.Equal(t, 5, cfg.Booking.MaxBlackoutDays)
	assert.Equal(t, "https://hooks.example.com/sessions", cfg.Notifications.WebhookURL)
	assert.Equal(t, "recordings", cfg.Storage.BucketName)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoad_ValidationFailure(t *testing.T) {
	// Save current directory and change to a temp directory without .env file
	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)

	tempDir := t.TempDir()
	os.Chdir(tempDir)

	// Clean environment - missing DATABASE_URL
	os.Clearenv()

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
}
