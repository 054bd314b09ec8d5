package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_EXPIRATION_HOURS", "")
	t.Setenv("OTP_TTL", "")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 24, cfg.JWT.ExpirationHours)
	require.Equal(t, 15*time.Minute, cfg.OTP.TTL)
	require.Equal(t, time.Minute, cfg.OTP.RateWindow)
	require.Equal(t, 3, cfg.OTP.RateLimit)
	require.Equal(t, 6, cfg.OTP.Length)
	require.Equal(t, "admin_secret", cfg.Admin.SecretKey)
	require.True(t, cfg.Admin.EnforceRole)
	require.Empty(t, cfg.Admin.Email)
	require.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("ADMIN_ENFORCE_ROLE", "false")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092 ,")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("ADMIN_EMAIL", "root@acme.com")
	t.Setenv("ADMIN_PASSWORD", "RootSecret1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 2, cfg.JWT.ExpirationHours)
	require.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	require.False(t, cfg.Admin.EnforceRole)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.Notifier.KafkaBrokers)
	require.Equal(t, logger.Silent, cfg.DB.LogLevel)
	require.Equal(t, "root@acme.com", cfg.Admin.Email)
	require.Equal(t, "RootSecret1", cfg.Admin.Password)
}

func TestLoadRequiresAdminPasswordWithEmail(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ADMIN_EMAIL", "root@acme.com")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsDefaultSigningKeyInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET_KEY", "directoryservicesecretkey")

	_, err := Load()
	require.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	db := DBConfig{Host: "h", Port: "1", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	require.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", db.GetDSN())
}
